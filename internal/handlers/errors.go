package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
	"github.com/yukikurage/ticket-tracker-api/internal/middleware"
	"github.com/yukikurage/ticket-tracker-api/internal/services"
)

// respondServiceError maps a service error category to its HTTP status
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAuthorization):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrStateConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		apierrors.ValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

func currentPrincipal(c *gin.Context) (auth.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return auth.Principal{}, false
	}
	return principal, true
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, ok := middleware.GetIDParam(c, name)
	if !ok {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
