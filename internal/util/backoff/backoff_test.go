package backoff_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"conduit/internal/util/backoff"
)

func TestNext(t *testing.T) {
	cfg := backoff.Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff.Next(cfg, 1, nil))
	assert.Equal(t, 200*time.Millisecond, backoff.Next(cfg, 2, nil))
	assert.Equal(t, 800*time.Millisecond, backoff.Next(cfg, 4, nil))
	assert.Equal(t, time.Second, backoff.Next(cfg, 10, nil))

	cfg.Jitter = true
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		d := backoff.Next(cfg, 3, rng)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 600*time.Millisecond)
	}

	assert.Zero(t, backoff.Next(backoff.Config{}, 3, nil))
}

func TestSleep(t *testing.T) {
	assert.True(t, backoff.Sleep(nil, time.Millisecond))

	done := make(chan struct{})
	close(done)
	assert.False(t, backoff.Sleep(done, time.Hour))
}
