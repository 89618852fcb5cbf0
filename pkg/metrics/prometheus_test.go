package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounters(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordSignal("VVV")
	r.RecordSignal("VVV")
	r.RecordResult("win", 1)
	r.RecordNotification("signal", false)
	r.SetArmed(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signals.WithLabelValues("VVV")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.results.WithLabelValues("win", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues("signal", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.armed))
}

func TestRecorderConnectionIsExclusive(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordConnection("connecting")
	r.RecordConnection("connected")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.connection.WithLabelValues("connected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.connection.WithLabelValues("connecting")))
}
