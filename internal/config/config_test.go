package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL())
	assert.False(t, cfg.Booking.StrictPostingClose)
	assert.Equal(t, "logs", cfg.Booking.LogDir)
	assert.True(t, cfg.Cache.Caches("get"))
	assert.False(t, cfg.Cache.Caches("POST"))
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, "localhost:6379", cfg.Redis.address())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":                   "s",
		"DB_DRIVER":                    "postgres",
		"BOOKING_STRICT_POSTING_CLOSE": "true",
		"CACHE_METHODS":                "GET,HEAD",
		"RATE_LIMIT_BURST":             "5",
		"RATE_LIMIT_REFILL_EVERY":      "2s",
		"RATE_LIMIT_TTL":               "1s",
		"REDIS_HOST":                   "cache",
		"REDIS_PORT":                   "6380",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.True(t, cfg.Booking.StrictPostingClose)
	assert.True(t, cfg.Cache.Caches("HEAD"))
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.TTL, "ttl is at least five refill intervals")
	assert.Equal(t, "cache:6380", cfg.Redis.address())
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoadRejectsBcryptCost(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":  "s",
		"BCRYPT_COST": "2",
	}))
	assert.Error(t, err)
}
