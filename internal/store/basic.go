package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
)

// AddPatient registers a new patient. The record starts waiting with
// an empty history; required-field validation is the caller's
// responsibility, not the store's.
func (s *Store) AddPatient(ctx context.Context, req model.CreatePatientRequest) model.Patient {
	p := s.buildPatient(req)
	s.prepend(ctx, p)
	return p
}

// ImportPatients registers a batch of patients (the CSV import path)
// in a single state update. IDs are generated per record, so a bulk
// import never produces duplicates.
func (s *Store) ImportPatients(ctx context.Context, reqs []model.CreatePatientRequest) []model.Patient {
	if len(reqs) == 0 {
		return nil
	}
	records := make([]model.Patient, len(reqs))
	for i, req := range reqs {
		records[i] = s.buildPatient(req)
	}
	s.prepend(ctx, records...)
	return records
}

// UpdatePatient applies a partial update. Every field whose value
// actually changes yields one audit entry capturing the old and new
// values; touching FirstName or LastName recomputes the derived Name
// from the merged values in the same step. Unknown IDs are a silent
// no-op.
func (s *Store) UpdatePatient(ctx context.Context, id uuid.UUID, update model.PatientUpdate, modifier model.Actor) (model.Patient, bool) {
	return s.mutate(ctx, id, func(p model.Patient) (model.Patient, bool) {
		var entries []model.ModificationEntry
		record := func(field, oldValue, newValue string) {
			entries = append(entries, model.ModificationEntry{
				Field:      field,
				OldValue:   oldValue,
				NewValue:   newValue,
				ModifiedBy: modifier,
				Timestamp:  s.now(),
			})
		}
		apply := func(field string, current *string, next *string) {
			if next == nil || *next == *current {
				return
			}
			record(field, *current, *next)
			*current = *next
		}

		apply("first_name", &p.FirstName, update.FirstName)
		apply("last_name", &p.LastName, update.LastName)
		apply("birth_date", &p.BirthDate, update.BirthDate)
		apply("gender", &p.Gender, update.Gender)
		apply("company", &p.Company, update.Company)
		apply("employee_id", &p.EmployeeID, update.EmployeeID)
		apply("id_number", &p.IDNumber, update.IDNumber)
		apply("email", &p.Email, update.Email)
		apply("phone", &p.Phone, update.Phone)
		apply("address", &p.Address, update.Address)
		apply("notes", &p.Notes, update.Notes)

		if update.Service != nil && *update.Service != p.Service {
			record("service", string(p.Service), string(*update.Service))
			p.Service = *update.Service
		}
		if update.Status != nil && *update.Status != p.Status {
			record("status", string(p.Status), string(*update.Status))
			p.Status = *update.Status
		}

		if update.FirstName != nil || update.LastName != nil {
			p.Name = model.DisplayName(p.FirstName, p.LastName)
		}

		p.ModificationHistory = p.ModificationHistory.Prepend(entries...)
		return p, true
	})
}

func (s *Store) buildPatient(req model.CreatePatientRequest) model.Patient {
	return model.Patient{
		ID:                  s.newID(),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Name:                model.DisplayName(req.FirstName, req.LastName),
		BirthDate:           req.BirthDate,
		Gender:              req.Gender,
		Company:             req.Company,
		EmployeeID:          req.EmployeeID,
		IDNumber:            req.IDNumber,
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		Service:             req.Service,
		Status:              model.StatusWaiting,
		RegisteredAt:        s.now(),
		ModificationHistory: model.ReverseChronological[model.ModificationEntry]{},
		PendingLabExams:     []model.LabExam{},
		CompletedLabExams:   []model.LabExam{},
		ServiceHistory:      model.Chronological[model.ServiceRecord]{},
		Notes:               req.Notes,
	}
}
