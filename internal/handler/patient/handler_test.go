package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medarch/records-api/internal/middleware"
	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/internal/repository/memory"
	patientService "github.com/medarch/records-api/internal/service/patient"
	"github.com/medarch/records-api/internal/store"
	"github.com/medarch/records-api/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(context.Background(), memory.New(), logger.NewLogger(nil), nil)
	st.Replace(context.Background(), []model.Patient{})
	svc := patientService.NewService(st, nil, logger.NewLogger(nil), nil)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextActor, model.Actor{Name: "Alice", Role: "nurse"})
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func createPatient(t *testing.T, r *gin.Engine) model.Patient {
	t.Helper()
	w, env := doRequest(t, r, http.MethodPost, "/api/v1/patients", map[string]interface{}{
		"first_name": "Jean",
		"last_name":  "Dupont",
		"birth_date": "1990-01-01",
		"gender":     "M",
		"company":    "PERENCO",
		"service":    "medical-visit",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var p model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestCreateAndGetPatient(t *testing.T) {
	r := newTestRouter(t)
	p := createPatient(t, r)
	assert.Equal(t, "JEAN DUPONT", p.Name)
	assert.Equal(t, model.StatusWaiting, p.Status)

	w, env := doRequest(t, r, http.MethodGet, "/api/v1/patients/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, p.ID, got.ID)
}

func TestCreatePatientRejectsMissingFields(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doRequest(t, r, http.MethodPost, "/api/v1/patients", map[string]interface{}{
		"first_name": "Jean",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientInvalidID(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doRequest(t, r, http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientNotFound(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doRequest(t, r, http.MethodGet, "/api/v1/patients/6a7c19a4-21c2-4e9e-a4f9-6bb6e3a0e3c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTakeChargeAndCompleteFlow(t *testing.T) {
	r := newTestRouter(t)
	p := createPatient(t, r)

	w, env := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/patients/%s/take-charge", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var inProgress model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &inProgress))
	assert.Equal(t, model.StatusInProgress, inProgress.Status)
	require.NotNil(t, inProgress.TakenCareBy)
	assert.Equal(t, "Alice", inProgress.TakenCareBy.Name)

	w, env = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/patients/%s/complete", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var completed model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.Len(t, completed.ModificationHistory, 2)
}

func TestLabExamFlow(t *testing.T) {
	r := newTestRouter(t)
	p := createPatient(t, r)

	w, env := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/patients/%s/lab-exams", p.ID), map[string]interface{}{
		"exams": []map[string]string{{"type": "glycemia"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var pending model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending.PendingLabExams, 1)

	w, env = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/patients/%s/lab-exams/complete", p.ID), map[string]interface{}{
		"results": []map[string]string{{
			"exam_id": pending.PendingLabExams[0].ID.String(),
			"results": "5.4 mmol/L",
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var completed model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Empty(t, completed.PendingLabExams)
	require.Len(t, completed.CompletedLabExams, 1)
	assert.Equal(t, "5.4 mmol/L", completed.CompletedLabExams[0].Results)
}

func TestBranchServiceEndpoint(t *testing.T) {
	r := newTestRouter(t)
	p := createPatient(t, r)

	w, env := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/v1/patients/%s/services", p.ID), map[string]string{
		"service": "consultation",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var branch model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &branch))
	assert.Equal(t, p.ID, branch.OriginalPatientID)
	assert.Equal(t, model.ServiceConsultation, branch.Service)

	// Both episodes are listed.
	w, env = doRequest(t, r, http.MethodGet, "/api/v1/patients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)
}

func TestImportPatientsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	csvBody := "first_name,last_name,birth_date,gender,company,service\n" +
		"Jean,Dupont,1990-01-01,M,PERENCO,medical-visit\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", bytes.NewBufferString(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var patients []model.Patient
	require.NoError(t, json.Unmarshal(env.Data, &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "JEAN DUPONT", patients[0].Name)
}
