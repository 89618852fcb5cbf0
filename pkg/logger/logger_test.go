package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With("machine").Info("bet won",
		String("round", "r1"),
		Int("gale", 1),
		Bool("running", true),
		Duration("took", 1500*time.Millisecond),
		Strings("subscribers", []string{"notifier", "stream"}),
	)

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	got := lines[0]
	assert.Equal(t, "bet won", got["message"])
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "spinsignal", got["service"])
	assert.Equal(t, "machine", got["component"])
	assert.Equal(t, "r1", got["round"])
	assert.Equal(t, 1.0, got["gale"])
	assert.Equal(t, true, got["running"])
	assert.Equal(t, 1500.0, got["took"])
	assert.Equal(t, []interface{}{"notifier", "stream"}, got["subscribers"])
	assert.Contains(t, got["caller"], "logger_test.go")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestFieldKeyValues(t *testing.T) {
	k, v := Error(errors.New("boom")).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Equal(t, "boom", v)

	_, v = Error(nil).GetKeyValue()
	assert.Equal(t, "", v)

	_, v = Duration("took", 2*time.Second).GetKeyValue()
	assert.Equal(t, int64(2000), v)

	_, v = Strings("s", []string{"a", "b"}).GetKeyValue()
	assert.Equal(t, "a,b", v)
}

func TestErrorsReachSharedCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})
	child := l.With("feed")

	child.Warn("slow poll")
	child.Error("poll failed", String("endpoint", "current"), Error(errors.New("timeout")))
	l.RemoveCollector()

	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0].Entries, 1)
	entry := pub.batches[0].Entries[0]
	assert.Equal(t, "poll failed", entry.Message)
	assert.Equal(t, "current", entry.Fields["endpoint"])
	assert.Equal(t, "timeout", entry.Fields["error"])
	assert.Contains(t, entry.Caller, "logger_test.go")
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("x").Error("ignored", Int64("id", 7))
	})
}
