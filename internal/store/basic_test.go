package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medarch/records-api/internal/model"
)

func strPtr(s string) *string { return &s }

func TestAddPatient(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.AddPatient(context.Background(), createRequest())

	assert.Equal(t, "JEAN DUPONT", p.Name)
	assert.Equal(t, model.StatusWaiting, p.Status)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.RegisteredAt.IsZero())
	assert.Empty(t, p.ModificationHistory)
	assert.Empty(t, p.ServiceHistory)
	assert.Empty(t, p.PendingLabExams)

	list := s.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}

func TestAddPatientPrependsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := s.AddPatient(ctx, createRequest())
	req := createRequest()
	req.FirstName = "Marie"
	second := s.AddPatient(ctx, req)

	list := s.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestUpdatePatientRecomputesName(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p := s.AddPatient(ctx, createRequest())

	updated, ok := s.UpdatePatient(ctx, p.ID, model.PatientUpdate{
		FirstName: strPtr("Pierre"),
	}, model.Actor{Name: "Sonia", Role: "secretary"})
	require.True(t, ok)
	assert.Equal(t, "PIERRE DUPONT", updated.Name)

	updated, ok = s.UpdatePatient(ctx, p.ID, model.PatientUpdate{
		LastName: strPtr("Martin"),
	}, model.Actor{Name: "Sonia", Role: "secretary"})
	require.True(t, ok)
	assert.Equal(t, "PIERRE MARTIN", updated.Name)
}

func TestUpdatePatientAuditsEachChangedField(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p := s.AddPatient(ctx, createRequest())
	modifier := model.Actor{Name: "Sonia", Role: "secretary"}

	updated, ok := s.UpdatePatient(ctx, p.ID, model.PatientUpdate{
		FirstName: strPtr("Pierre"),
		Company:   strPtr("CAMRAIL"),
		Gender:    strPtr("M"), // unchanged, must not be audited
	}, modifier)
	require.True(t, ok)

	require.Len(t, updated.ModificationHistory, 2)
	fields := []string{updated.ModificationHistory[0].Field, updated.ModificationHistory[1].Field}
	assert.ElementsMatch(t, []string{"first_name", "company"}, fields)
	for _, entry := range updated.ModificationHistory {
		assert.Equal(t, modifier, entry.ModifiedBy)
		assert.False(t, entry.Timestamp.IsZero())
	}
}

func TestUpdatePatientHistoryIsAppendOnly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p := s.AddPatient(ctx, createRequest())
	modifier := model.Actor{Name: "Sonia", Role: "secretary"}

	first, ok := s.UpdatePatient(ctx, p.ID, model.PatientUpdate{FirstName: strPtr("Pierre")}, modifier)
	require.True(t, ok)
	require.Len(t, first.ModificationHistory, 1)
	snapshot := first.ModificationHistory[0]

	second, ok := s.UpdatePatient(ctx, p.ID, model.PatientUpdate{Company: strPtr("CAMRAIL")}, modifier)
	require.True(t, ok)
	require.Len(t, second.ModificationHistory, 2)

	// Newest first; the earlier entry is untouched at the tail.
	assert.Equal(t, "company", second.ModificationHistory[0].Field)
	assert.Equal(t, snapshot, second.ModificationHistory[1])
}

func TestUpdatePatientUnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddPatient(ctx, createRequest())
	before := s.List(ctx)

	_, ok := s.UpdatePatient(ctx, uuid.New(), model.PatientUpdate{FirstName: strPtr("X")}, model.Actor{Name: "Sonia", Role: "secretary"})
	assert.False(t, ok)
	assert.Equal(t, before, s.List(ctx))
}

func TestImportPatients(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	reqs := make([]model.CreatePatientRequest, 50)
	for i := range reqs {
		reqs[i] = createRequest()
	}

	patients := s.ImportPatients(ctx, reqs)
	require.Len(t, patients, 50)
	assert.Len(t, s.List(ctx), 50)

	// Bulk import must never produce duplicate IDs.
	seen := make(map[uuid.UUID]bool, len(patients))
	for _, p := range patients {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestImportPatientsEmptyIsNoOp(t *testing.T) {
	s, repo := newTestStore(t)
	base := repo.Saves()
	assert.Nil(t, s.ImportPatients(context.Background(), nil))
	assert.Equal(t, base, repo.Saves())
}
