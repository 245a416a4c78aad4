package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a best-effort cross-instance lock built on SET NX PX.
// The lease bounds how long a crashed holder can block others.
type Locker struct {
	client *redis.Client
	lease  time.Duration
	retry  time.Duration
}

func NewLocker(client *redis.Client, lease time.Duration) *Locker {
	if lease <= 0 {
		lease = 5 * time.Second
	}
	return &Locker{client: client, lease: lease, retry: 20 * time.Millisecond}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.key(key)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.lease).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
	return func() {
		// best-effort; an expired lease has already released it
		_ = releaseScript.Run(context.Background(), l.client, []string{lockKey}, token).Err()
	}, nil
}

func (l *Locker) key(key string) string {
	return "lock:" + key
}
