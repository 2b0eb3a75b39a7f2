package repository

import (
	"context"

	"github.com/medarch/records-api/internal/model"
)

// SnapshotVersion is the current persisted envelope version.
const SnapshotVersion = 1

// SnapshotState is the payload of the persisted envelope.
type SnapshotState struct {
	Patients []model.Patient `json:"patients"`
}

// Snapshot is the envelope written on every store mutation and read
// back on startup: { state: { patients: [...] }, version: n }.
type Snapshot struct {
	State   SnapshotState `json:"state"`
	Version int           `json:"version"`
}

// SnapshotRepository persists whole-store snapshots under a fixed
// slot. Load returns (nil, nil) when no snapshot exists; callers treat
// unparseable data the same way and fall back to seed data.
type SnapshotRepository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}
