package booking

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matiasvera/clinic-api/internal/middleware"
	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/service/booking"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/httputil"
)

// Handler serves the unauthenticated public booking flow.
type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	public := r.Group("/booking")
	{
		public.POST("", h.BookPublic)
		public.GET("/therapists/:id/slots",
			middleware.Cache(middleware.AvailabilityCacheConfig(60)),
			h.DayAvailability)
	}
}

func (h *Handler) BookPublic(c *gin.Context) {
	var req model.PublicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), nil))
		return
	}

	apt, err := h.service.BookPublic(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) DayAvailability(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid therapist id", err))
		return
	}
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.NewBadRequest("date query parameter is required", nil))
		return
	}

	slots, err := h.service.DayAvailability(c.Request.Context(), therapistID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}
