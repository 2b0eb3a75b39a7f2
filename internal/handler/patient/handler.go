package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medarch/records-api/internal/middleware"
	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/internal/service/patient"
	apperrors "github.com/medarch/records-api/pkg/errors"
	"github.com/medarch/records-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.POST("/import", h.ImportPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)
		patients.GET("/:id/history", h.GetModificationHistory)

		patients.POST("/:id/take-charge", h.TakeCharge)
		patients.POST("/:id/complete", h.CompletePatient)
		patients.PUT("/:id/status", h.OverrideStatus)
		patients.POST("/:id/services", h.BranchService)

		patients.POST("/:id/lab-exams", h.RequestLabExams)
		patients.POST("/:id/lab-exams/complete", h.CompleteLabExams)

		patients.POST("/:id/service-records", h.AddServiceRecord)
		patients.PUT("/:id/service-records", h.UpdateServiceRecord)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.RegisterPatient(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

// ImportPatients accepts a CSV roster, either as a multipart "file"
// field or as a raw text/csv body.
func (h *Handler) ImportPatients(c *gin.Context) {
	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("failed to open uploaded file", err))
			return
		}
		defer f.Close()
		body = f
	}

	patients, err := h.service.ImportPatientsCSV(c.Request.Context(), body)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, patients)
}

func (h *Handler) ListPatients(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, h.service.ListPatients(c.Request.Context()))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) GetModificationHistory(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p.ModificationHistory)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var update model.PatientUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), id, update, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) TakeCharge(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	p, err := h.service.TakeCharge(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) CompletePatient(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	p, err := h.service.CompletePatient(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) OverrideStatus(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req model.StatusOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.OverrideStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) BranchService(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	var req model.BranchServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.BranchService(c.Request.Context(), id, req.Service)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) RequestLabExams(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req model.RequestLabExamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.RequestLabExams(c.Request.Context(), id, req.Exams, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) CompleteLabExams(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req model.CompleteLabExamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.CompleteLabExams(c.Request.Context(), id, req.Results, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) AddServiceRecord(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req model.AddServiceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.AddServiceRecord(c.Request.Context(), id, req, &actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) UpdateServiceRecord(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	var req model.UpdateServiceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	p, err := h.service.UpdateServiceRecord(c.Request.Context(), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) patientID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return model.Actor{}, false
	}
	return actor, true
}
