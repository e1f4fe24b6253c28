package database

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	mr := miniredis.RunT(t)
	Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		Redis.Close()
		Redis = nil
	})
	return mr
}

func TestTokenBlacklist(t *testing.T) {
	mr := setupRedis(t)

	assert.False(t, IsTokenBlacklisted("jti-1"))
	require.NoError(t, BlacklistToken("jti-1", time.Minute))
	assert.True(t, IsTokenBlacklisted("jti-1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, IsTokenBlacklisted("jti-1"))
}

func TestBlacklistWithoutRedisIsNoop(t *testing.T) {
	Redis = nil
	assert.NoError(t, BlacklistToken("jti-1", time.Minute))
	assert.False(t, IsTokenBlacklisted("jti-1"))
}

func TestCheckRateLimit(t *testing.T) {
	setupRedis(t)

	for i := 0; i < 3; i++ {
		ok, err := CheckRateLimit("login:a@b.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := CheckRateLimit("login:a@b.com", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
