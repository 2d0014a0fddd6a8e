package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placeharvest/models"
)

// respondError writes err as an ErrorResponse with a matching status code.
func respondError(c *gin.Context, err error) {
	var he *models.HarvestError
	if !errors.As(err, &he) {
		he = models.NewHarvestError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(he), models.ErrorResponse{Error: he.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.HarvestError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeBrowserUnavailable:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeQueueFull:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
