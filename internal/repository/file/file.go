package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/medarch/records-api/internal/repository"
)

// Repository persists snapshots as a JSON file under a fixed path, the
// durable local slot for single-node deployments. Writes go through a
// temp file and rename so a crash mid-write never leaves a truncated
// snapshot behind.
type Repository struct {
	path string
}

func New(path string) *Repository {
	return &Repository{path: path}
}

// Load reads the snapshot file. A missing file means no data; an
// unparseable file is treated the same way, logged but never surfaced
// as an error.
func (r *Repository) Load(_ context.Context) (*repository.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot repository.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("snapshot file is unreadable, falling back to defaults")
		return nil, nil
	}
	return &snapshot, nil
}

func (r *Repository) Save(_ context.Context, snapshot *repository.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}
