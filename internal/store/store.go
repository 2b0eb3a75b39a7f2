package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/internal/repository"
	"github.com/medarch/records-api/pkg/logger"
	"github.com/medarch/records-api/pkg/metrics"
)

// Store holds the ordered patient list and mediates every mutation.
// The list is newest-first; mutations are copy-on-write: each
// operation derives a new list (and a new copy of the touched record)
// and swaps it under the lock, so readers holding a previous snapshot
// never observe partial writes.
//
// After every mutation the whole state is written through to the
// snapshot repository. Persistence failures are logged and never
// propagated to callers.
type Store struct {
	mu       sync.RWMutex
	patients []model.Patient

	snapshots repository.SnapshotRepository
	logger    *logger.Logger
	metrics   *metrics.Metrics

	// Seams for tests.
	now   func() time.Time
	newID func() uuid.UUID
}

// New builds a store backed by the given snapshot repository. If a
// snapshot exists it is restored; a missing or unreadable snapshot
// falls back to the seed roster. Metrics may be nil.
func New(ctx context.Context, snapshots repository.SnapshotRepository, log *logger.Logger, m *metrics.Metrics) *Store {
	s := &Store{
		snapshots: snapshots,
		logger:    log,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.New,
	}

	snapshot, err := snapshots.Load(ctx)
	switch {
	case err != nil:
		log.Error(err, "failed to load patient snapshot, starting from seed data")
		s.patients = SeedPatients()
	case snapshot == nil:
		s.patients = SeedPatients()
	default:
		s.patients = snapshot.State.Patients
	}
	return s
}

// List returns a copy of the patient list, newest registration first.
func (s *Store) List(_ context.Context) []model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Patient{}, s.patients...)
}

// Get returns the patient with the given ID.
func (s *Store) Get(_ context.Context, id uuid.UUID) (model.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.Patient{}, false
}

// Replace swaps in an externally sourced patient list wholesale, e.g.
// from a remote sync.
func (s *Store) Replace(ctx context.Context, patients []model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients = append([]model.Patient{}, patients...)
	s.persist(ctx)
}

// mutate locates a patient by ID and applies fn to a clone. If the ID
// is unknown, or fn reports no change, the state is left untouched and
// ok is false; the store never signals not-found as an error.
func (s *Store) mutate(ctx context.Context, id uuid.UUID, fn func(p model.Patient) (model.Patient, bool)) (model.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.patients {
		if p.ID != id {
			continue
		}
		next, ok := fn(p.Clone())
		if !ok {
			return model.Patient{}, false
		}
		patients := append([]model.Patient{}, s.patients...)
		patients[i] = next
		s.patients = patients
		s.persist(ctx)
		return next.Clone(), true
	}
	return model.Patient{}, false
}

// prepend inserts new records at the head of the list under the lock
// and writes the snapshot through.
func (s *Store) prepend(ctx context.Context, records ...model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patients := make([]model.Patient, 0, len(records)+len(s.patients))
	patients = append(patients, records...)
	patients = append(patients, s.patients...)
	s.patients = patients
	s.persist(ctx)
}

// persist writes the whole state through to the snapshot repository.
// Callers must hold the write lock.
func (s *Store) persist(ctx context.Context) {
	snapshot := &repository.Snapshot{
		State:   repository.SnapshotState{Patients: s.patients},
		Version: repository.SnapshotVersion,
	}

	start := time.Now()
	err := s.snapshots.Save(ctx, snapshot)
	if s.metrics != nil {
		s.metrics.SnapshotWrites.Inc()
		s.metrics.SnapshotWriteLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.SnapshotWriteFailed.Inc()
		}
	}
	if err != nil {
		s.logger.Error(err, "failed to persist patient snapshot")
	}
}
