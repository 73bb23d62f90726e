package controller

import (
	"errors"
	"net/http"

	"github.com/lshigami/Margay/internal/apperr"
)

// statusFor maps service errors onto HTTP status codes. Anything the
// taxonomy does not name is a plain 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrResumeNotFound),
		errors.Is(err, apperr.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrSessionCompleted),
		errors.Is(err, apperr.ErrIndexMismatch),
		errors.Is(err, apperr.ErrSessionNotCompleted):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrExtractionFailed):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrGenerationFailed),
		errors.Is(err, apperr.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
