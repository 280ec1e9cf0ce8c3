package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/logger"
)

const lockPrefix = "package_lock:"

// unlockScript deletes the lock only while it is still held by the same holder.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client  *redis.Client
	LockTTL time.Duration
	Logger  *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{Client: client, LockTTL: ttl, Logger: log}
}

func lockKey(packageID string) string {
	return lockPrefix + packageID
}

// LockPackage takes the booking lock for a package. It returns false when another
// holder has it. The lock expires after LockTTL if never released.
func (r *Redis) LockPackage(ctx context.Context, packageID, holder string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, lockKey(packageID), holder, r.LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("lock package %s: %w", packageID, err)
	}
	if !ok {
		r.Logger.Debug("REDIS", fmt.Sprintf("Package %s already locked", packageID))
	}
	return ok, nil
}

// UnlockPackage releases the lock if holder still owns it.
func (r *Redis) UnlockPackage(ctx context.Context, packageID, holder string) error {
	if err := unlockScript.Run(ctx, r.Client, []string{lockKey(packageID)}, holder).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("unlock package %s: %w", packageID, err)
	}
	return nil
}
