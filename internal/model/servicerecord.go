package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ServiceRecord is one completed service episode in a patient's
// history. ServiceData carries the episode payload as JSON validated
// at the API boundary against the shape for its ServiceType; the store
// treats it as opaque.
//
// Date is kept as the exact string supplied at append time:
// UpdateServiceRecord matches entries by exact string comparison, not
// by parsed time.
type ServiceRecord struct {
	ServiceType ServiceType     `json:"service_type"`
	ServiceData json.RawMessage `json:"service_data"`
	Date        string          `json:"date"`
	ModifiedBy  *Actor          `json:"modified_by,omitempty"`
}

// MedicalVisitData is the payload shape for medical-visit episodes.
type MedicalVisitData struct {
	VisitType     string `json:"visit_type"`
	Aptitude      string `json:"aptitude"`
	Restrictions  string `json:"restrictions,omitempty"`
	Observations  string `json:"observations,omitempty"`
	NextVisitDate string `json:"next_visit_date,omitempty"`
}

// ConsultationData is the payload shape for consultation episodes.
type ConsultationData struct {
	Complaint    string `json:"complaint"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription,omitempty"`
	Observations string `json:"observations,omitempty"`
}

// EmergencyData is the payload shape for emergency episodes.
type EmergencyData struct {
	Severity     string `json:"severity"`
	Description  string `json:"description"`
	Treatment    string `json:"treatment,omitempty"`
	Evacuation   bool   `json:"evacuation"`
	Observations string `json:"observations,omitempty"`
}

// DecodeServiceData validates raw episode data against the payload
// shape for the given service type and returns it re-encoded in
// canonical form. Unknown fields are rejected.
func DecodeServiceData(t ServiceType, data []byte) (json.RawMessage, error) {
	var payload any
	switch t {
	case ServiceMedicalVisit:
		payload = &MedicalVisitData{}
	case ServiceConsultation:
		payload = &ConsultationData{}
	case ServiceEmergency:
		payload = &EmergencyData{}
	default:
		return nil, fmt.Errorf("unknown service type %q", t)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("invalid %s data: %w", t, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}
