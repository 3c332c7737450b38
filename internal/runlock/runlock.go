// Package runlock keeps two digest runs from delivering at the same time.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/utils"
)

const (
	DefaultKey = "remote-digest:run"
	DefaultTTL = 30 * time.Minute
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("another run holds the lock")

// Locker guards a run. Release must be called with the token Acquire returned.
type Locker interface {
	Acquire(ctx context.Context, token string) error
	Release(ctx context.Context, token string) error
	Close() error
}

// Nop never blocks. It is used when no redis url is configured.
type Nop struct{}

func (Nop) Acquire(context.Context, string) error { return nil }
func (Nop) Release(context.Context, string) error { return nil }
func (Nop) Close() error                          { return nil }

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX lock with an expiry.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis parses url, checks connectivity and returns the lock.
func NewRedis(ctx context.Context, url, key string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Redis{client: client, key: key, ttl: ttl, logger: logger}, nil
}

func (r *Redis) Acquire(ctx context.Context, token string) error {
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", r.key, err)
	}
	if !ok {
		holder, _ := r.client.Get(ctx, r.key).Result()
		r.logger.Warn("run lock is held", zap.String("key", r.key), zap.String("holder", holder))
		return ErrLocked
	}

	r.logger.Debug("run lock acquired", zap.String("key", r.key), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *Redis) Release(ctx context.Context, token string) error {
	deleted, err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Int()
	if err != nil {
		return fmt.Errorf("releasing lock %s: %w", r.key, err)
	}
	if deleted == 0 {
		r.logger.Warn("run lock expired before release", zap.String("key", r.key))
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// AcquireWait retries Acquire every interval while the lock is held, up to
// attempts times.
func AcquireWait(ctx context.Context, l Locker, token string, attempts int, interval time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := utils.WaitFor(ctx, interval); werr != nil {
				return werr
			}
		}

		err = l.Acquire(ctx, token)
		if !errors.Is(err, ErrLocked) {
			return err
		}
	}
	return err
}
