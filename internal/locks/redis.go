package locks

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/dossier-backend/internal/logger"
)

// releaseScript deletes the lock key only when the caller still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is the multi-replica KeyedLock: SET NX with a TTL, polled until
// acquired. Single-replica deployments use KeyedMutex instead.
type RedisLock struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLockFromEnv returns (nil, nil) when REDIS_ADDR is unset; the
// caller falls back to the in-process mutex.
func NewRedisLockFromEnv(log *logger.Logger) (*RedisLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisLock{
		log:    log.With("service", "RedisLock"),
		rdb:    rdb,
		prefix: "dossier:lock:",
		ttl:    30 * time.Second,
		retry:  25 * time.Millisecond,
	}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis lock not initialized")
	}
	fullKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{fullKey}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock", "key", key, "error", err)
		}
	}
	return release, nil
}

func (l *RedisLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
