package reset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

const (
	defaultPrefix   = "reset"
	maxWatchRetries = 4
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps reset tokens in redis under a hash of the token, expiring
// them with the key TTL.
type RedisStore struct {
	redis   redis.UniversalClient
	prefix  string
	nowTime func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{
		redis:   client,
		prefix:  prefix,
		nowTime: NowTimeFunc,
	}
}

// Connect opens a redis client and waits for it to answer a ping, backing off
// exponentially between attempts.
func Connect(ctx context.Context, addr string, attempts uint64) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Save(ctx context.Context, token *Token) error {
	ttl := token.ExpiresAt.Sub(s.nowTime())
	if ttl <= 0 {
		return invalid("RedisStore Save")
	}
	encoded, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(token.Token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("saving reset token: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (*Token, error) {
	key := s.key(token)

	for i := 0; i < maxWatchRetries; i++ {
		var consumed *Token

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			var t Token
			if err := json.Unmarshal(data, &t); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			if !s.nowTime().Before(t.ExpiresAt) {
				return invalid("RedisStore Consume")
			}
			consumed = &t
			return nil
		}, key)

		switch {
		case err == nil:
			return consumed, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return nil, invalid("RedisStore Consume")
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("consuming reset token: %w", redis.TxFailedErr)
}
