package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceType classifies the care episode a patient is routed through.
type ServiceType string

const (
	ServiceMedicalVisit ServiceType = "medical-visit"
	ServiceConsultation ServiceType = "consultation"
	ServiceEmergency    ServiceType = "emergency"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceMedicalVisit, ServiceConsultation, ServiceEmergency:
		return true
	}
	return false
}

// PatientStatus is the lifecycle state of a single care episode.
// Transitions are waiting -> in-progress -> completed; completion is
// also allowed directly from waiting.
type PatientStatus string

const (
	StatusWaiting    PatientStatus = "waiting"
	StatusInProgress PatientStatus = "in-progress"
	StatusCompleted  PatientStatus = "completed"
)

func (s PatientStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Actor identifies the staff member performing a mutation. It is
// supplied by the session layer on every call that records audit
// history.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Patient is the central record. One Patient represents one care
// episode: branching a new service for the same person creates a new
// record linked back through OriginalPatientID.
type Patient struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Name       string    `json:"name"`
	BirthDate  string    `json:"birth_date"`
	Gender     string    `json:"gender"`
	Company    string    `json:"company"`
	EmployeeID string    `json:"employee_id,omitempty"`
	IDNumber   string    `json:"id_number,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`

	Service ServiceType   `json:"service"`
	Status  PatientStatus `json:"status"`

	RegisteredAt      time.Time `json:"registered_at"`
	OriginalPatientID uuid.UUID `json:"original_patient_id,omitempty"`

	ModificationHistory ReverseChronological[ModificationEntry] `json:"modification_history"`
	TakenCareBy         *Actor                                  `json:"taken_care_by,omitempty"`

	PendingLabExams   []LabExam `json:"pending_lab_exams"`
	CompletedLabExams []LabExam `json:"completed_lab_exams"`

	ServiceHistory Chronological[ServiceRecord] `json:"service_history"`

	Notes string `json:"notes,omitempty"`
}

// DisplayName derives the denormalized Name field from the given name
// parts. Every mutation touching FirstName or LastName must recompute
// Name through this function.
func DisplayName(firstName, lastName string) string {
	return strings.ToUpper(strings.TrimSpace(firstName + " " + lastName))
}

// Clone returns a deep copy of the patient. Store mutations operate on
// clones so shared snapshots are never written in place.
func (p Patient) Clone() Patient {
	c := p
	c.ModificationHistory = append(ReverseChronological[ModificationEntry]{}, p.ModificationHistory...)
	c.PendingLabExams = append([]LabExam{}, p.PendingLabExams...)
	c.CompletedLabExams = append([]LabExam{}, p.CompletedLabExams...)
	c.ServiceHistory = append(Chronological[ServiceRecord]{}, p.ServiceHistory...)
	if p.TakenCareBy != nil {
		actor := *p.TakenCareBy
		c.TakenCareBy = &actor
	}
	return c
}
