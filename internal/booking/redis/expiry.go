package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// WatchExpiredLocks reports package locks that expired instead of being released, which
// means a booking request outlived LockTTL. It enables expiry keyspace events and runs
// until ctx is done.
func (r *Redis) WatchExpiredLocks(ctx context.Context) {
	if err := r.Client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		r.Logger.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	}

	channel := fmt.Sprintf("__keyevent@%d__:expired", r.Client.Options().DB)
	pubsub := r.Client.PSubscribe(ctx, channel)
	r.Logger.Info("REDIS", fmt.Sprintf("Watching %s for expired package locks", channel))

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if packageID, ok := expiredPackage(msg); ok {
					r.Logger.Warn("REDIS", fmt.Sprintf("Lock on package %s expired before release", packageID))
				}
			}
		}
	}()
}

func expiredPackage(msg *redis.Message) (string, bool) {
	if msg == nil || !strings.HasPrefix(msg.Payload, lockPrefix) {
		return "", false
	}
	return strings.TrimPrefix(msg.Payload, lockPrefix), true
}
