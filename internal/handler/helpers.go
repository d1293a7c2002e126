package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkwise/internal/domain"
	"linkwise/internal/service"
	"linkwise/internal/token"
)

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// handleError maps service errors to the status codes and messages clients display.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, domain.ErrInvalid):
		fail(c, http.StatusBadRequest, "URL required")
	case errors.Is(err, service.ErrExtractFailed):
		fail(c, http.StatusBadRequest, "Failed to extract article content")
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "Link not found")
	case errors.Is(err, service.ErrMissingCredentials):
		fail(c, http.StatusBadRequest, "Please enter email and password")
	case errors.Is(err, service.ErrWeakPassword):
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, service.ErrEmailInUse):
		fail(c, http.StatusConflict, "Email already in use")
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrRevoked):
		fail(c, http.StatusUnauthorized, "Session expired")
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
