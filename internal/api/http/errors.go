package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/molx/internal/domain/app"
	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/infrastructure/resilience"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, intake.ErrInvalidFileType), errors.Is(err, app.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, viewer.ErrNoFile),
		errors.Is(err, viewer.ErrNotReady),
		errors.Is(err, viewer.ErrDisposed),
		errors.Is(err, viewer.ErrSaveDisabled),
		errors.Is(err, viewer.ErrResetDisabled):
		return http.StatusConflict
	case resilience.Rejected(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
