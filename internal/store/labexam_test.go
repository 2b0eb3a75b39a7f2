package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medarch/records-api/internal/model"
)

func TestRequestLabExams(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	lab := model.Actor{Name: "Bob", Role: "lab"}
	p := s.AddPatient(ctx, createRequest())

	updated, ok := s.RequestLabExams(ctx, p.ID, []model.LabExamRequest{
		{Type: "glycemia"},
		{Type: "hemogram"},
	}, lab)
	require.True(t, ok)

	require.Len(t, updated.PendingLabExams, 2)
	for _, exam := range updated.PendingLabExams {
		assert.NotEqual(t, uuid.Nil, exam.ID)
		assert.Equal(t, model.ExamPending, exam.Status)
		assert.Equal(t, lab, exam.RequestedBy)
		assert.False(t, exam.RequestedAt.IsZero())
		assert.False(t, exam.Completed)
	}

	require.Len(t, updated.ModificationHistory, 1)
	assert.Equal(t, "lab_exams", updated.ModificationHistory[0].Field)
	assert.Equal(t, "None", updated.ModificationHistory[0].OldValue)
	assert.Equal(t, "2 exams requested", updated.ModificationHistory[0].NewValue)
}

func TestCompleteLabExams(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	lab := model.Actor{Name: "Bob", Role: "lab"}
	p := s.AddPatient(ctx, createRequest())

	pending, ok := s.RequestLabExams(ctx, p.ID, []model.LabExamRequest{{Type: "glycemia"}}, lab)
	require.True(t, ok)
	examID := pending.PendingLabExams[0].ID

	completed, ok := s.CompleteLabExams(ctx, p.ID, []model.LabExamResult{
		{ExamID: examID, Results: "5.4 mmol/L"},
	}, lab)
	require.True(t, ok)

	assert.Empty(t, completed.PendingLabExams)
	require.Len(t, completed.CompletedLabExams, 1)
	exam := completed.CompletedLabExams[0]
	assert.Equal(t, examID, exam.ID)
	assert.True(t, exam.Completed)
	assert.Equal(t, model.ExamCompleted, exam.Status)
	assert.Equal(t, "5.4 mmol/L", exam.Results)
	require.NotNil(t, exam.CompletedAt)
	require.NotNil(t, exam.CompletedBy)
	assert.Equal(t, lab, *exam.CompletedBy)

	// Summary audit entry comparing completed counts.
	require.NotEmpty(t, completed.ModificationHistory)
	assert.Equal(t, "0 exams completed", completed.ModificationHistory[0].OldValue)
	assert.Equal(t, "1 exams completed", completed.ModificationHistory[0].NewValue)
}

// Completion is keyed by exam ID, so the batch order is irrelevant.
func TestCompleteLabExamsIsOrderIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	lab := model.Actor{Name: "Bob", Role: "lab"}
	p := s.AddPatient(ctx, createRequest())

	pending, ok := s.RequestLabExams(ctx, p.ID, []model.LabExamRequest{
		{Type: "glycemia"},
		{Type: "hemogram"},
		{Type: "creatinine"},
	}, lab)
	require.True(t, ok)

	// Complete first and last, listed in ascending position order, the
	// hazardous case for index-based completion.
	results := []model.LabExamResult{
		{ExamID: pending.PendingLabExams[0].ID, Results: "a"},
		{ExamID: pending.PendingLabExams[2].ID, Results: "c"},
	}

	updated, ok := s.CompleteLabExams(ctx, p.ID, results, lab)
	require.True(t, ok)
	require.Len(t, updated.PendingLabExams, 1)
	assert.Equal(t, "hemogram", updated.PendingLabExams[0].Type)
	require.Len(t, updated.CompletedLabExams, 2)
}

func TestCompleteLabExamsSkipsUnknownIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	lab := model.Actor{Name: "Bob", Role: "lab"}
	p := s.AddPatient(ctx, createRequest())

	pending, ok := s.RequestLabExams(ctx, p.ID, []model.LabExamRequest{{Type: "glycemia"}}, lab)
	require.True(t, ok)

	updated, ok := s.CompleteLabExams(ctx, p.ID, []model.LabExamResult{
		{ExamID: uuid.New(), Results: "bogus"},
	}, lab)
	require.True(t, ok)
	assert.Len(t, updated.PendingLabExams, len(pending.PendingLabExams))
	assert.Empty(t, updated.CompletedLabExams)
}

// An exam lives in exactly one container at any time.
func TestLabExamDisjointness(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	lab := model.Actor{Name: "Bob", Role: "lab"}
	p := s.AddPatient(ctx, createRequest())

	pending, ok := s.RequestLabExams(ctx, p.ID, []model.LabExamRequest{
		{Type: "glycemia"},
		{Type: "hemogram"},
	}, lab)
	require.True(t, ok)

	updated, ok := s.CompleteLabExams(ctx, p.ID, []model.LabExamResult{
		{ExamID: pending.PendingLabExams[0].ID, Results: "ok"},
	}, lab)
	require.True(t, ok)

	seen := make(map[uuid.UUID]int)
	for _, e := range updated.PendingLabExams {
		seen[e.ID]++
	}
	for _, e := range updated.CompletedLabExams {
		seen[e.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "exam %s appears in more than one container", id)
	}
}

func TestRequestLabExamsEmptyBatchIsNoOp(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	p := s.AddPatient(ctx, createRequest())
	base := repo.Saves()

	_, ok := s.RequestLabExams(ctx, p.ID, nil, model.Actor{Name: "Bob", Role: "lab"})
	assert.False(t, ok)
	assert.Equal(t, base, repo.Saves())
}
