package patient

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/internal/store"
	apperrors "github.com/medarch/records-api/pkg/errors"
	"github.com/medarch/records-api/pkg/logger"
	"github.com/medarch/records-api/pkg/messaging"
	"github.com/medarch/records-api/pkg/metrics"
)

// EventChannel is the broker channel lifecycle events are published on.
const EventChannel = "medarch.patients"

// Lifecycle event types.
const (
	EventPatientCreated    = "patient.created"
	EventPatientUpdated    = "patient.updated"
	EventStatusChanged     = "patient.status_changed"
	EventServiceBranched   = "patient.service_branched"
	EventLabExamsRequested = "labexams.requested"
	EventLabExamsCompleted = "labexams.completed"
	EventServiceRecorded   = "service.recorded"
	EventPatientsImported  = "patients.imported"
)

type PatientService interface {
	RegisterPatient(ctx context.Context, req model.CreatePatientRequest) (model.Patient, error)
	ImportPatientsCSV(ctx context.Context, r io.Reader) ([]model.Patient, error)
	ListPatients(ctx context.Context) []model.Patient
	GetPatient(ctx context.Context, id uuid.UUID) (model.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, update model.PatientUpdate, modifier model.Actor) (model.Patient, error)
	TakeCharge(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, error)
	CompletePatient(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, error)
	OverrideStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus, modifier model.Actor) (model.Patient, error)
	BranchService(ctx context.Context, id uuid.UUID, service model.ServiceType) (model.Patient, error)
	RequestLabExams(ctx context.Context, id uuid.UUID, exams []model.LabExamRequest, requestedBy model.Actor) (model.Patient, error)
	CompleteLabExams(ctx context.Context, id uuid.UUID, results []model.LabExamResult, completedBy model.Actor) (model.Patient, error)
	AddServiceRecord(ctx context.Context, id uuid.UUID, req model.AddServiceRecordRequest, modifiedBy *model.Actor) (model.Patient, error)
	UpdateServiceRecord(ctx context.Context, id uuid.UUID, req model.UpdateServiceRecordRequest) (model.Patient, error)
}

// Service fronts the patient store. All required-field and
// business-rule validation happens here, before the store is touched;
// the store itself never rejects a mutation. Each successful mutation
// publishes a lifecycle event for external sync, fire-and-forget.
type Service struct {
	store    *store.Store
	broker   messaging.Broker
	logger   *logger.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func NewService(st *store.Store, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    st,
		broker:   broker,
		logger:   log,
		metrics:  m,
		validate: validator.New(),
	}
}

func (s *Service) RegisterPatient(ctx context.Context, req model.CreatePatientRequest) (model.Patient, error) {
	if err := s.validateCreate(req); err != nil {
		return model.Patient{}, err
	}

	p := s.store.AddPatient(ctx, req)
	s.countMutation("add_patient", true)
	s.publish(ctx, EventPatientCreated, p)
	return p, nil
}

// ImportPatientsCSV reads a roster CSV and registers every row in one
// state update. Expected header: first_name, last_name, birth_date,
// gender, company, service, then optional employee_id, id_number,
// email, phone, address, notes in any order.
func (s *Service) ImportPatientsCSV(ctx context.Context, r io.Reader) ([]model.Patient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.BadRequest("failed to read CSV header", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var reqs []model.CreatePatientRequest
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf("failed to read CSV line %d", line), err)
		}

		req := model.CreatePatientRequest{
			FirstName:  field(row, "first_name"),
			LastName:   field(row, "last_name"),
			BirthDate:  field(row, "birth_date"),
			Gender:     field(row, "gender"),
			Company:    field(row, "company"),
			Service:    model.ServiceType(field(row, "service")),
			EmployeeID: field(row, "employee_id"),
			IDNumber:   field(row, "id_number"),
			Email:      field(row, "email"),
			Phone:      field(row, "phone"),
			Address:    field(row, "address"),
			Notes:      field(row, "notes"),
		}
		if err := s.validateCreate(req); err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid patient on CSV line %d", line), err)
		}
		reqs = append(reqs, req)
	}

	if len(reqs) == 0 {
		return nil, apperrors.BadRequest("CSV contains no patient rows", nil)
	}

	patients := s.store.ImportPatients(ctx, reqs)
	s.countMutation("import_patients", true)
	s.publish(ctx, EventPatientsImported, map[string]interface{}{"count": len(patients)})
	return patients, nil
}

func (s *Service) ListPatients(ctx context.Context) []model.Patient {
	return s.store.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (model.Patient, error) {
	p, ok := s.store.Get(ctx, id)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, update model.PatientUpdate, modifier model.Actor) (model.Patient, error) {
	if err := s.validateActor(modifier); err != nil {
		return model.Patient{}, err
	}
	if update.Service != nil && !update.Service.Valid() {
		return model.Patient{}, apperrors.BadRequest(fmt.Sprintf("unknown service type %q", *update.Service), nil)
	}
	if update.Status != nil && !update.Status.Valid() {
		return model.Patient{}, apperrors.BadRequest(fmt.Sprintf("unknown status %q", *update.Status), nil)
	}

	p, ok := s.store.UpdatePatient(ctx, id, update, modifier)
	s.countMutation("update_patient", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventPatientUpdated, p)
	return p, nil
}

func (s *Service) TakeCharge(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, error) {
	if err := s.validateActor(caregiver); err != nil {
		return model.Patient{}, err
	}
	p, ok := s.store.TakeCharge(ctx, id, caregiver)
	s.countMutation("take_charge", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventStatusChanged, p)
	return p, nil
}

func (s *Service) CompletePatient(ctx context.Context, id uuid.UUID, caregiver model.Actor) (model.Patient, error) {
	if err := s.validateActor(caregiver); err != nil {
		return model.Patient{}, err
	}
	p, ok := s.store.SetPatientCompleted(ctx, id, caregiver)
	s.countMutation("set_completed", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventStatusChanged, p)
	return p, nil
}

func (s *Service) OverrideStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus, modifier model.Actor) (model.Patient, error) {
	if err := s.validateActor(modifier); err != nil {
		return model.Patient{}, err
	}
	if !status.Valid() {
		return model.Patient{}, apperrors.BadRequest(fmt.Sprintf("unknown status %q", status), nil)
	}
	p, ok := s.store.UpdatePatientStatus(ctx, id, status, modifier)
	s.countMutation("override_status", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventStatusChanged, p)
	return p, nil
}

func (s *Service) BranchService(ctx context.Context, id uuid.UUID, service model.ServiceType) (model.Patient, error) {
	if !service.Valid() {
		return model.Patient{}, apperrors.BadRequest(fmt.Sprintf("unknown service type %q", service), nil)
	}
	p, ok := s.store.AddServiceToExistingPatient(ctx, id, service)
	s.countMutation("branch_service", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventServiceBranched, p)
	return p, nil
}

func (s *Service) RequestLabExams(ctx context.Context, id uuid.UUID, exams []model.LabExamRequest, requestedBy model.Actor) (model.Patient, error) {
	if err := s.validateActor(requestedBy); err != nil {
		return model.Patient{}, err
	}
	if len(exams) == 0 {
		return model.Patient{}, apperrors.BadRequest("no exams requested", nil)
	}
	for _, e := range exams {
		if e.Type == "" {
			return model.Patient{}, apperrors.BadRequest("exam type is required", nil)
		}
	}

	p, ok := s.store.RequestLabExams(ctx, id, exams, requestedBy)
	s.countMutation("request_lab_exams", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventLabExamsRequested, p)
	return p, nil
}

func (s *Service) CompleteLabExams(ctx context.Context, id uuid.UUID, results []model.LabExamResult, completedBy model.Actor) (model.Patient, error) {
	if err := s.validateActor(completedBy); err != nil {
		return model.Patient{}, err
	}
	if len(results) == 0 {
		return model.Patient{}, apperrors.BadRequest("no exam results supplied", nil)
	}

	p, ok := s.store.CompleteLabExams(ctx, id, results, completedBy)
	s.countMutation("complete_lab_exams", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventLabExamsCompleted, p)
	return p, nil
}

func (s *Service) AddServiceRecord(ctx context.Context, id uuid.UUID, req model.AddServiceRecordRequest, modifiedBy *model.Actor) (model.Patient, error) {
	data, err := model.DecodeServiceData(req.ServiceType, req.ServiceData)
	if err != nil {
		return model.Patient{}, apperrors.BadRequest("invalid service data", err)
	}
	req.ServiceData = data

	p, ok := s.store.AddServiceRecord(ctx, id, req, modifiedBy)
	s.countMutation("add_service_record", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}
	s.publish(ctx, EventServiceRecorded, p)
	return p, nil
}

func (s *Service) UpdateServiceRecord(ctx context.Context, id uuid.UUID, req model.UpdateServiceRecordRequest) (model.Patient, error) {
	current, ok := s.store.Get(ctx, id)
	if !ok {
		return model.Patient{}, apperrors.NotFound("patient", nil)
	}

	var data json.RawMessage
	found := false
	for _, rec := range current.ServiceHistory {
		if rec.Date == req.Date {
			decoded, err := model.DecodeServiceData(rec.ServiceType, req.ServiceData)
			if err != nil {
				return model.Patient{}, apperrors.BadRequest("invalid service data", err)
			}
			data = decoded
			found = true
			break
		}
	}
	if !found {
		return model.Patient{}, apperrors.NotFound("service record", nil)
	}

	p, ok := s.store.UpdateServiceRecord(ctx, id, req.Date, data)
	s.countMutation("update_service_record", ok)
	if !ok {
		return model.Patient{}, apperrors.NotFound("service record", nil)
	}
	s.publish(ctx, EventServiceRecorded, p)
	return p, nil
}

func (s *Service) validateCreate(req model.CreatePatientRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.BadRequest("invalid patient data", err)
	}
	if !req.Service.Valid() {
		return apperrors.BadRequest(fmt.Sprintf("unknown service type %q", req.Service), nil)
	}
	return nil
}

func (s *Service) validateActor(actor model.Actor) error {
	if actor.Name == "" || actor.Role == "" {
		return apperrors.BadRequest("modifier identity requires name and role", nil)
	}
	return nil
}

func (s *Service) countMutation(operation string, ok bool) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "not_found"
	}
	s.metrics.StoreMutations.WithLabelValues(operation, status).Inc()
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{Type: eventType, Payload: payload}
	if err := s.broker.Publish(ctx, EventChannel, msg); err != nil {
		if s.metrics != nil {
			s.metrics.EventsFailed.WithLabelValues(eventType).Inc()
		}
		s.logger.Error(err, "failed to publish lifecycle event", "event_type", eventType)
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType).Inc()
	}
}
