package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
)

// SeedPatients returns the demo roster used when no snapshot exists or
// the stored snapshot cannot be read.
func SeedPatients() []model.Patient {
	now := time.Now()
	seed := []struct {
		firstName, lastName, birthDate, gender, company string
		service                                         model.ServiceType
	}{
		{"Jean", "Dupont", "1985-03-12", "M", "PERENCO", model.ServiceMedicalVisit},
		{"Marie", "Ngono", "1992-07-28", "F", "TOTALENERGIES", model.ServiceConsultation},
		{"Paul", "Essomba", "1978-11-03", "M", "CAMRAIL", model.ServiceMedicalVisit},
	}

	patients := make([]model.Patient, len(seed))
	for i, s := range seed {
		patients[i] = model.Patient{
			ID:                  uuid.New(),
			FirstName:           s.firstName,
			LastName:            s.lastName,
			Name:                model.DisplayName(s.firstName, s.lastName),
			BirthDate:           s.birthDate,
			Gender:              s.gender,
			Company:             s.company,
			Service:             s.service,
			Status:              model.StatusWaiting,
			RegisteredAt:        now,
			ModificationHistory: model.ReverseChronological[model.ModificationEntry]{},
			PendingLabExams:     []model.LabExam{},
			CompletedLabExams:   []model.LabExam{},
			ServiceHistory:      model.Chronological[model.ServiceRecord]{},
		}
	}
	return patients
}
