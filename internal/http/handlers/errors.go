package handlers

import (
	"errors"
	"net/http"

	"promptmatch/internal/domain"
	"promptmatch/internal/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps lifecycle and content errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionFull),
		errors.Is(err, domain.ErrOpponentMissing),
		errors.Is(err, domain.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrUnknownBoard),
		errors.Is(err, domain.ErrUnknownContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		msg = domain.ErrStoreUnavailable.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
