package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const liveHashKey = "bluetti:latest"

// ErrNoLiveData indicates the live hash is empty.
var ErrNoLiveData = errors.New("telemetry: no live data")

// LiveStore mirrors the latest telemetry into a redis hash so that other
// processes (and the discharge sampler's authoritative re-fetch) can read a
// consistent copy even when an MQTT message was missed locally.
type LiveStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLiveStore returns a redis-backed live telemetry mirror.
func NewLiveStore(client *redis.Client, ttl time.Duration) *LiveStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LiveStore{client: client, ttl: ttl}
}

// Publish stores one metric update. Values are JSON-encoded so numbers and
// strings round-trip unchanged.
func (s *LiveStore) Publish(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, liveHashKey, key, data)
	pipe.Expire(ctx, liveHashKey, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Fetch returns the full latest telemetry map.
func (s *LiveStore) Fetch(ctx context.Context) (map[string]any, error) {
	raw, err := s.client.HGetAll(ctx, liveHashKey).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoLiveData
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			out[k] = v
			continue
		}
		out[k] = decoded
	}
	return out, nil
}
