package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CreatePatientRequest is the registration payload. Required-field
// checks live here and in the service layer, never in the store.
type CreatePatientRequest struct {
	FirstName  string      `json:"first_name" binding:"required" validate:"required"`
	LastName   string      `json:"last_name" binding:"required" validate:"required"`
	BirthDate  string      `json:"birth_date" binding:"required" validate:"required"`
	Gender     string      `json:"gender" binding:"required" validate:"required"`
	Company    string      `json:"company" binding:"required" validate:"required"`
	Service    ServiceType `json:"service" binding:"required" validate:"required"`
	EmployeeID string      `json:"employee_id"`
	IDNumber   string      `json:"id_number"`
	Email      string      `json:"email" binding:"omitempty,email" validate:"omitempty,email"`
	Phone      string      `json:"phone"`
	Address    string      `json:"address"`
	Notes      string      `json:"notes"`
}

// PatientUpdate is a partial update. Nil fields are left untouched;
// every field whose value actually changes yields one audit entry.
type PatientUpdate struct {
	FirstName  *string        `json:"first_name"`
	LastName   *string        `json:"last_name"`
	BirthDate  *string        `json:"birth_date"`
	Gender     *string        `json:"gender"`
	Company    *string        `json:"company"`
	EmployeeID *string        `json:"employee_id"`
	IDNumber   *string        `json:"id_number"`
	Email      *string        `json:"email" binding:"omitempty,email"`
	Phone      *string        `json:"phone"`
	Address    *string        `json:"address"`
	Service    *ServiceType   `json:"service"`
	Status     *PatientStatus `json:"status"`
	Notes      *string        `json:"notes"`
}

// StatusOverrideRequest forces a status, bypassing the take-charge
// precondition. Edit dialogs use this as an explicit escape hatch. The
// modifier identity comes from the session token, not the body.
type StatusOverrideRequest struct {
	Status PatientStatus `json:"status" binding:"required"`
}

// BranchServiceRequest opens a new care episode for an existing
// patient.
type BranchServiceRequest struct {
	Service ServiceType `json:"service" binding:"required"`
}

// LabExamRequest describes one exam to request.
type LabExamRequest struct {
	Type string `json:"type" binding:"required"`
}

// RequestLabExamsRequest attaches a batch of pending exams.
type RequestLabExamsRequest struct {
	Exams []LabExamRequest `json:"exams" binding:"required,min=1,dive"`
}

// LabExamResult carries the outcome for one pending exam, keyed by the
// exam's stable ID.
type LabExamResult struct {
	ExamID  uuid.UUID `json:"exam_id" binding:"required"`
	Results string    `json:"results" binding:"required"`
}

// CompleteLabExamsRequest closes a batch of pending exams.
type CompleteLabExamsRequest struct {
	Results []LabExamResult `json:"results" binding:"required,min=1,dive"`
}

// AddServiceRecordRequest appends one episode record to the patient's
// service history.
type AddServiceRecordRequest struct {
	ServiceType ServiceType     `json:"service_type" binding:"required"`
	ServiceData json.RawMessage `json:"service_data" binding:"required"`
	Date        string          `json:"date"`
}

// UpdateServiceRecordRequest rewrites the payload of the history entry
// whose date exactly matches Date.
type UpdateServiceRecordRequest struct {
	Date        string          `json:"date" binding:"required"`
	ServiceData json.RawMessage `json:"service_data" binding:"required"`
}
