package volume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "crest/pkg/domain"
)

// RedisStore keeps accumulators as JSON values keyed by (asset, sender), so a
// fleet of gateway instances shares the same rolling windows. Serialization
// across instances is still the engine's per-sender lock; with more than one
// instance the accumulators are best-effort, which is acceptable because caps
// are regulatory ceilings, not balances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, prefix: "crest:volume:"}
}

func (s *RedisStore) key(asset id.AssetID, sender id.Identity) string {
	return s.prefix + asset.String() + ":" + sender.String()
}

func (s *RedisStore) Get(ctx context.Context, asset id.AssetID, sender id.Identity) (Usage, error) {
	raw, err := s.client.Get(ctx, s.key(asset, sender)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, fmt.Errorf("get volume usage: %w", err)
	}
	var usage Usage
	if err := json.Unmarshal(raw, &usage); err != nil {
		return Usage{}, fmt.Errorf("decode volume usage: %w", err)
	}
	return usage, nil
}

func (s *RedisStore) Put(ctx context.Context, asset id.AssetID, sender id.Identity, usage Usage) error {
	raw, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("encode volume usage: %w", err)
	}
	if err := s.client.Set(ctx, s.key(asset, sender), raw, 0).Err(); err != nil {
		return fmt.Errorf("put volume usage: %w", err)
	}
	return nil
}
