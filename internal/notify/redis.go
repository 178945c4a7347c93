package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "cart_flash:"

// RedisStore keeps flash notifications in a Redis list per session, so any web
// replica can render them.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis connects to addr and retries the first ping with backoff.
func DialRedis(ctx context.Context, addr string, log logrus.FieldLogger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.WithField("redis.addr", addr).Info("connected to redis")
			return rdb, nil
		}
		backoff := time.Duration(1<<i) * 200 * time.Millisecond
		log.Warnf("redis not ready, retry in %v... (%d/%d)", backoff, i+1, maxRetries)
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	_ = rdb.Close()
	return nil, errors.Wrapf(err, "connect redis %s", addr)
}

func (r *RedisStore) key(session string) string {
	return redisKeyPrefix + session
}

func (r *RedisStore) Push(ctx context.Context, session string, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	key := r.key(session)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "push notification")
	}
	return nil
}

func (r *RedisStore) Drain(ctx context.Context, session string) ([]Notification, error) {
	key := r.key(session)
	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "drain notifications")
	}
	raw := items.Val()
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Notification, 0, len(raw))
	for _, s := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			return out, errors.Wrap(err, "decode notification")
		}
		out = append(out, n)
	}
	return out, nil
}
