package therapist

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/service/therapist"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/httputil"
)

type Handler struct {
	service *therapist.Service
}

func NewHandler(service *therapist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	therapists := r.Group("/therapists")
	{
		therapists.POST("", h.CreateTherapist)
		therapists.GET("", h.ListTherapists)
		therapists.GET("/:id", h.GetTherapist)
		therapists.PUT("/:id", h.UpdateTherapist)
	}
}

func (h *Handler) CreateTherapist(c *gin.Context) {
	var req model.CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), nil))
		return
	}

	therapist, err := h.service.CreateTherapist(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, therapist)
}

func (h *Handler) GetTherapist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid therapist id", err))
		return
	}

	therapist, err := h.service.GetTherapist(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, therapist)
}

func (h *Handler) UpdateTherapist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid therapist id", err))
		return
	}

	var req model.UpdateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), nil))
		return
	}

	therapist, err := h.service.UpdateTherapist(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, therapist)
}

func (h *Handler) ListTherapists(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	therapists, err := h.service.ListTherapists(c.Request.Context(), activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, therapists)
}
