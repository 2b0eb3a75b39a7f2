package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
)

// AddServiceRecord appends one episode record to the patient's service
// history. ServiceHistory is chronological (oldest first), the
// opposite convention from ModificationHistory; the most recent
// episode is the tail entry. A missing date defaults to now.
func (s *Store) AddServiceRecord(ctx context.Context, patientID uuid.UUID, req model.AddServiceRecordRequest, modifiedBy *model.Actor) (model.Patient, bool) {
	return s.mutate(ctx, patientID, func(p model.Patient) (model.Patient, bool) {
		date := req.Date
		if date == "" {
			date = s.now().Format(time.RFC3339)
		}
		p.ServiceHistory = p.ServiceHistory.Append(model.ServiceRecord{
			ServiceType: req.ServiceType,
			ServiceData: req.ServiceData,
			Date:        date,
			ModifiedBy:  modifiedBy,
		})
		return p, true
	})
}

// UpdateServiceRecord replaces the payload of the first history entry
// whose date exactly string-matches the given date. This is the one
// sanctioned in-place edit of service history. Dates are compared as
// strings, never parsed: two renderings of the same instant do not
// match. Missing patient or entry is a silent no-op.
func (s *Store) UpdateServiceRecord(ctx context.Context, patientID uuid.UUID, date string, serviceData json.RawMessage) (model.Patient, bool) {
	return s.mutate(ctx, patientID, func(p model.Patient) (model.Patient, bool) {
		for i, rec := range p.ServiceHistory {
			if rec.Date == date {
				rec.ServiceData = serviceData
				p.ServiceHistory[i] = rec
				return p, true
			}
		}
		return model.Patient{}, false
	})
}
