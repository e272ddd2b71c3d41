package snapshot

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/waste3d/learnplatform-api/internal/state"
)

// RedisSlot — durable слот снапшотов поверх Redis. Храним без TTL:
// снапшот живет до следующей перезаписи.
type RedisSlot struct {
	client *redis.Client
}

func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

func (s *RedisSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, "snapshot:"+key).Bytes()
	if err == redis.Nil {
		return nil, state.ErrNoSnapshot
	}
	return data, err
}

func (s *RedisSlot) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, "snapshot:"+key, data, 0).Err()
}
