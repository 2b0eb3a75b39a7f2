package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/medarch/records-api/internal/repository"
)

// slotKey is the fixed key the whole-store snapshot lives under.
const slotKey = "medarch:patients:snapshot"

// Repository persists snapshots under a fixed Redis key.
type Repository struct {
	client *redis.Client
}

func New(url string) (*Repository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Repository{client: client}, nil
}

func (r *Repository) Load(ctx context.Context) (*repository.Snapshot, error) {
	data, err := r.client.Get(ctx, slotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot repository.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Warn().Err(err).Str("key", slotKey).Msg("stored snapshot is unreadable, falling back to defaults")
		return nil, nil
	}
	return &snapshot, nil
}

func (r *Repository) Save(ctx context.Context, snapshot *repository.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, slotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
