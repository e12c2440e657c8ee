package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"intake/pkg/platform/sentinel"
)

// DefaultKey is the Redis key holding the pending residency transfer.
const DefaultKey = "intake:handoff:residency"

// RedisSlot keeps the transfer in Redis so it survives a process restart
// within its TTL. Take uses GETDEL so a transfer is consumed at most once.
type RedisSlot struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisSlot builds a slot under DefaultKey. A zero ttl keeps the
// transfer until it is taken.
func NewRedisSlot(client redis.Cmdable, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, key: DefaultKey, ttl: ttl}
}

func (s *RedisSlot) Put(ctx context.Context, t Transfer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store transfer: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisSlot) Take(ctx context.Context) (Transfer, error) {
	raw, err := s.client.GetDel(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Transfer{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Transfer{}, fmt.Errorf("take transfer: %w: %w", sentinel.ErrUnavailable, err)
	}
	var t Transfer
	if err := json.Unmarshal(raw, &t); err != nil {
		return Transfer{}, fmt.Errorf("decode transfer: %w", err)
	}
	return t, nil
}
