package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/medarch/records-api/internal/repository"
)

// Repository is an in-process snapshot slot. It backs ephemeral runs
// and serves as the persistence test double.
type Repository struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func New() *Repository {
	return &Repository{}
}

func (r *Repository) Load(_ context.Context) (*repository.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		return nil, nil
	}
	var snapshot repository.Snapshot
	if err := json.Unmarshal(r.data, &snapshot); err != nil {
		return nil, nil
	}
	return &snapshot, nil
}

func (r *Repository) Save(_ context.Context, snapshot *repository.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (r *Repository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// SetRaw seeds the slot with raw bytes, valid or not.
func (r *Repository) SetRaw(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]byte{}, data...)
}
