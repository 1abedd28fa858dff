package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterMinuteLimit(t *testing.T) {
	rl := NewRateLimiter(2, 0, 0, 0)

	require.NoError(t, rl.CheckRateLimit("client", 0))
	require.NoError(t, rl.CheckRateLimit("client", 0))

	err := rl.CheckRateLimit("client", 0)
	require.Error(t, err)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "minute", rle.Type)
	assert.Equal(t, 2, rle.Limit)
	assert.Positive(t, rle.RetryAfter)

	// Other clients are unaffected.
	assert.NoError(t, rl.CheckRateLimit("other", 0))
}

func TestRateLimiterDataQuota(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0, 100)

	require.NoError(t, rl.CheckRateLimit("client", 60))

	err := rl.CheckRateLimit("client", 60)
	require.Error(t, err)
	var qee *QuotaExceededError
	require.ErrorAs(t, err, &qee)
	assert.Equal(t, "data", qee.Type)
	assert.Equal(t, int64(100), qee.Limit)
	assert.Equal(t, int64(60), qee.Used)
}

func TestRateLimiterDailyRequestQuota(t *testing.T) {
	rl := NewRateLimiter(0, 0, 1, 0)

	require.NoError(t, rl.CheckRateLimit("client", 0))

	err := rl.CheckRateLimit("client", 0)
	var qee *QuotaExceededError
	require.ErrorAs(t, err, &qee)
	assert.Equal(t, "requests", qee.Type)
}

func TestRateLimiterZeroLimitsDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0, 0)
	for range 20 {
		assert.NoError(t, rl.CheckRateLimit("client", 1000))
	}
}
