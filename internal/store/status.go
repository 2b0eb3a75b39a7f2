package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
)

// TakeCharge assigns a caregiver and moves the episode to in-progress.
// The audit entry records the patient's actual prior status, whatever
// it was.
func (s *Store) TakeCharge(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, bool) {
	return s.setStatus(ctx, id, model.StatusInProgress, caregiver, true)
}

// SetPatientCompleted closes the episode. Completion is allowed
// directly from waiting; no guard requires a prior take-charge.
func (s *Store) SetPatientCompleted(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, bool) {
	return s.setStatus(ctx, id, model.StatusCompleted, caregiver, true)
}

// UpdatePatientStatus forces a status unconditionally. This is the
// explicit override path used by edit dialogs; it bypasses the
// take-charge flow and does not reassign the caregiver.
func (s *Store) UpdatePatientStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus, modifier model.Actor) (model.Patient, bool) {
	return s.setStatus(ctx, id, status, modifier, false)
}

func (s *Store) setStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus, actor model.Actor, assign bool) (model.Patient, bool) {
	return s.mutate(ctx, id, func(p model.Patient) (model.Patient, bool) {
		prior := p.Status
		p.Status = status
		if assign {
			caregiver := actor
			p.TakenCareBy = &caregiver
		}
		p.ModificationHistory = p.ModificationHistory.Prepend(model.ModificationEntry{
			Field:      "status",
			OldValue:   string(prior),
			NewValue:   string(status),
			ModifiedBy: actor,
			Timestamp:  s.now(),
		})
		return p, true
	})
}

// AddServiceToExistingPatient branches a new care episode off an
// existing record: a fresh record reusing the demographics, waiting,
// with clean histories, exams and notes, linked back through
// OriginalPatientID. The original record is left untouched.
func (s *Store) AddServiceToExistingPatient(ctx context.Context, patientID uuid.UUID, service model.ServiceType) (model.Patient, bool) {
	original, ok := s.Get(ctx, patientID)
	if !ok {
		return model.Patient{}, false
	}

	branch := model.Patient{
		ID:                  s.newID(),
		FirstName:           original.FirstName,
		LastName:            original.LastName,
		Name:                original.Name,
		BirthDate:           original.BirthDate,
		Gender:              original.Gender,
		Company:             original.Company,
		EmployeeID:          original.EmployeeID,
		IDNumber:            original.IDNumber,
		Email:               original.Email,
		Phone:               original.Phone,
		Address:             original.Address,
		Service:             service,
		Status:              model.StatusWaiting,
		RegisteredAt:        s.now(),
		OriginalPatientID:   original.ID,
		ModificationHistory: model.ReverseChronological[model.ModificationEntry]{},
		PendingLabExams:     []model.LabExam{},
		CompletedLabExams:   []model.LabExam{},
		ServiceHistory:      model.Chronological[model.ServiceRecord]{},
	}
	s.prepend(ctx, branch)
	return branch, true
}
