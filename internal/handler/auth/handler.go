package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/matiasvera/clinic-api/internal/middleware"
	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/service/auth"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/register", h.Register)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), nil))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

// Register creates staff accounts; only admins may call it.
func (h *Handler) Register(c *gin.Context) {
	if c.GetString(middleware.ContextUserRole) != string(model.UserRoleAdmin) {
		httputil.RespondWithError(c, &apperrors.AppError{
			Code:    apperrors.ErrForbidden,
			Message: "admin role required",
		})
		return
	}

	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), nil))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}
