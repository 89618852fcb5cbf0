package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurst(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("chat", 2, 1))
	assert.True(t, l.Allow("chat", 2, 1))
	assert.False(t, l.Allow("chat", 2, 1))
	assert.True(t, l.Allow("other", 2, 1))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("chat", 2, 1))
	assert.False(t, l.Allow("chat", 2, 1))
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("k", 1, 0.001))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "k", 1, 0.001), context.DeadlineExceeded)
}

func TestWaitReturnsWhenRefilled(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("k", 1, 100))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, l.Wait(ctx, "k", 1, 100))
}
