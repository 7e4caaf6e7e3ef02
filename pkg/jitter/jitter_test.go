package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration_Bounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := Duration(d, DefaultJitter)
		assert.GreaterOrEqual(t, got, d)
		assert.Less(t, got, d+d/2)
	}
}

func TestDuration_NoJitter(t *testing.T) {
	assert.Equal(t, time.Second, Duration(time.Second, 0))
	assert.Equal(t, time.Duration(0), Duration(0, DefaultJitter))
}

func TestExponentialBackoff(t *testing.T) {
	base, max := 50*time.Millisecond, 400*time.Millisecond

	assert.Equal(t, base, ExponentialBackoff(base, max, 0, 0))
	assert.Equal(t, 2*base, ExponentialBackoff(base, max, 1, 0))
	assert.Equal(t, 4*base, ExponentialBackoff(base, max, 2, 0))
	assert.Equal(t, max, ExponentialBackoff(base, max, 10, 0))
	assert.Equal(t, max, ExponentialBackoff(base, max, 1000, 0))
}
