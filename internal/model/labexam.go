package model

import (
	"time"

	"github.com/google/uuid"
)

type ExamStatus string

const (
	ExamPending   ExamStatus = "pending"
	ExamCompleted ExamStatus = "completed"
)

// LabExam is a laboratory exam attached to a patient. An exam lives in
// exactly one of the patient's pending or completed containers; the ID
// is the stable key used to move it between them.
type LabExam struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Status      ExamStatus `json:"status"`
	RequestedBy Actor      `json:"requested_by"`
	RequestedAt time.Time  `json:"requested_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy *Actor     `json:"completed_by,omitempty"`
	Results     string     `json:"results,omitempty"`
}
