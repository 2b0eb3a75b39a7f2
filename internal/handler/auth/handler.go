package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/pkg/auth"
	apperrors "github.com/medarch/records-api/pkg/errors"
	"github.com/medarch/records-api/pkg/httputil"
)

// Handler issues the staff tokens the actor middleware consumes. Real
// session management is an external collaborator; this endpoint exists
// so standalone deployments can mint identities.
type Handler struct {
	jwt *auth.JWTService
}

func NewHandler(jwt *auth.JWTService) *Handler {
	return &Handler{jwt: jwt}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/token", h.IssueToken)
}

type tokenRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
}

func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	token, err := h.jwt.GenerateToken(model.Actor{Name: req.Name, Role: req.Role})
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"token": token})
}
