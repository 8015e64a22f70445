package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SchemaVersion tags serialized carts. Snapshots carrying a different
// version are discarded on load instead of failing rehydration.
const SchemaVersion = 1

const namespace = "sugbu-cart"

// Snapshot is the durable form of a cart: the full set of lines in
// insertion order, tagged with the schema version and the device key it
// belongs to.
type Snapshot struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	Items   []Line `json:"items"`
}

// Persister stores one serialized cart per device key. Save is called
// after every mutation, Load once when a device's store is first built.
type Persister interface {
	Save(ctx context.Context, key string, snap Snapshot) error
	Load(ctx context.Context, key string) (Snapshot, bool, error)
}

// RedisPersister keeps cart snapshots under "sugbu-cart:<device>" with a
// sliding expiry, so abandoned carts eventually disappear on their own.
type RedisPersister struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPersister(rdb *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{rdb: rdb, ttl: ttl}
}

func (p *RedisPersister) Save(ctx context.Context, key string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling cart snapshot: %w", err)
	}

	if err := p.rdb.Set(ctx, namespace+":"+key, b, p.ttl).Err(); err != nil {
		return fmt.Errorf("writing cart snapshot: %w", err)
	}
	return nil
}

func (p *RedisPersister) Load(ctx context.Context, key string) (Snapshot, bool, error) {
	b, err := p.rdb.Get(ctx, namespace+":"+key).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("reading cart snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshaling cart snapshot: %w", err)
	}

	if snap.Version != SchemaVersion {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}
