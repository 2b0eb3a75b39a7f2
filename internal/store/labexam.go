package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
)

// RequestLabExams attaches a batch of pending exams to the patient.
// Each exam is stamped with a stable ID, the request time and the
// requesting actor; one summary audit entry covers the whole batch.
func (s *Store) RequestLabExams(ctx context.Context, patientID uuid.UUID, exams []model.LabExamRequest, requestedBy model.Actor) (model.Patient, bool) {
	if len(exams) == 0 {
		return model.Patient{}, false
	}
	return s.mutate(ctx, patientID, func(p model.Patient) (model.Patient, bool) {
		for _, e := range exams {
			p.PendingLabExams = append(p.PendingLabExams, model.LabExam{
				ID:          s.newID(),
				Type:        e.Type,
				Status:      model.ExamPending,
				RequestedBy: requestedBy,
				RequestedAt: s.now(),
			})
		}
		p.ModificationHistory = p.ModificationHistory.Prepend(model.ModificationEntry{
			Field:      "lab_exams",
			OldValue:   "None",
			NewValue:   fmt.Sprintf("%d exams requested", len(exams)),
			ModifiedBy: requestedBy,
			Timestamp:  s.now(),
		})
		return p, true
	})
}

// CompleteLabExams moves pending exams to the completed container,
// keyed by their stable IDs so a batch is order-independent. Results
// referencing unknown or already-completed exams are skipped. An exam
// is only ever in one container: it leaves pending in the same step it
// enters completed.
func (s *Store) CompleteLabExams(ctx context.Context, patientID uuid.UUID, results []model.LabExamResult, completedBy model.Actor) (model.Patient, bool) {
	return s.mutate(ctx, patientID, func(p model.Patient) (model.Patient, bool) {
		outcomes := make(map[uuid.UUID]string, len(results))
		for _, r := range results {
			outcomes[r.ExamID] = r.Results
		}

		priorCompleted := len(p.CompletedLabExams)
		pending := make([]model.LabExam, 0, len(p.PendingLabExams))
		for _, exam := range p.PendingLabExams {
			res, ok := outcomes[exam.ID]
			if !ok {
				pending = append(pending, exam)
				continue
			}
			completedAt := s.now()
			completedActor := completedBy
			exam.Status = model.ExamCompleted
			exam.Completed = true
			exam.CompletedAt = &completedAt
			exam.CompletedBy = &completedActor
			exam.Results = res
			p.CompletedLabExams = append(p.CompletedLabExams, exam)
		}
		p.PendingLabExams = pending

		p.ModificationHistory = p.ModificationHistory.Prepend(model.ModificationEntry{
			Field:      "lab_exams",
			OldValue:   fmt.Sprintf("%d exams completed", priorCompleted),
			NewValue:   fmt.Sprintf("%d exams completed", len(p.CompletedLabExams)),
			ModifiedBy: completedBy,
			Timestamp:  s.now(),
		})
		return p, true
	})
}
