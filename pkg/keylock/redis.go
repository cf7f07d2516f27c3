package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLockTTL       = 10 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
	keyPrefix            = "cafe-pos:lock:"
)

// releaseScript удаляет ключ только если он все еще принадлежит владельцу токена.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка, общая для нескольких экземпляров сервиса. Блокировка живет не дольше ttl,
// поэтому защищаемая операция обязана укладываться в это время.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	l             *logrus.Entry
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisLocker) {
		r.ttl = ttl
	}
}

func WithRetryInterval(interval time.Duration) RedisOption {
	return func(r *RedisLocker) {
		r.retryInterval = interval
	}
}

func NewRedisLocker(client redis.UniversalClient, l *logrus.Logger, opts ...RedisOption) *RedisLocker {
	r := &RedisLocker{
		client:        client,
		ttl:           DefaultLockTTL,
		retryInterval: DefaultRetryInterval,
		l:             l.WithField("component", "keylock"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("[keylock] waiting for `%s`: %w", key, ctxErr)
			}
			return nil, fmt.Errorf("[keylock] acquiring `%s`: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(time.Duration(jitter(float64(r.retryInterval), 0.3, 0.3)))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("[keylock] waiting for `%s`: %w", key, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				// ключ истечет сам по ttl.
				r.l.WithError(err).WithField("key", key).Warn("failed to release lock")
			}
		})
	}, nil
}
