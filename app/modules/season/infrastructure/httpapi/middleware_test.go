package seasonhttp

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientRateLimiterReusesBuckets(t *testing.T) {
	l := NewClientRateLimiter(1, 2)

	a := l.For("10.0.0.1")
	assert.Same(t, a, l.For("10.0.0.1"))
	assert.NotSame(t, a, l.For("10.0.0.2"))
	assert.Equal(t, 2, l.Len())
}

func TestClientRateLimiterPrunesIdleClients(t *testing.T) {
	l := NewClientRateLimiter(1, 1)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }

	for i := 0; i <= pruneAbove; i++ {
		l.For(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	assert.Equal(t, pruneAbove+1, l.Len())

	l.now = func() time.Time { return start.Add(idleAfter + time.Second) }
	l.For("192.168.1.1")
	assert.Equal(t, 1, l.Len())
}
