package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CAPACITY_STRATEGY", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_ENABLED", "")

	cfg := Load()

	assert.Equal(t, StrategyAtomic, cfg.Booking.CapacityStrategy)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CAPACITY_STRATEGY", "redis-lock")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("PACKAGE_LOCK_TTL_SECONDS", "3")
	t.Setenv("HTTP_READ_TIMEOUT", "2s")

	cfg := Load()

	assert.Equal(t, StrategyRedisLock, cfg.Booking.CapacityStrategy)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
}

func TestUnknownStrategyFallsBackToAtomic(t *testing.T) {
	t.Setenv("CAPACITY_STRATEGY", "optimistic")

	assert.Equal(t, StrategyAtomic, Load().Booking.CapacityStrategy)
}
