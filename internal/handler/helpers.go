package handler

import (
	"errors"
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// tenantFrom reads the tenant id the auth middleware stored from the JWT.
// A request that reaches a handler without one is rejected.
func tenantFrom(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("tenantID")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Tenant not found in token"))
		return uuid.Nil, false
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid tenant in token"))
		return uuid.Nil, false
	}
	return tenantID, true
}

// actorFrom returns the authenticated user's id, or nil for automated callers.
func actorFrom(c *gin.Context) *uuid.UUID {
	raw := c.GetString("userID")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// writeServiceError maps service errors onto HTTP statuses. Validation and
// state errors are client faults; stock and conflict errors get 409 so
// clients can distinguish a retryable condition from bad input.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientAllocation),
		errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrIncompleteCount):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrConcurrencyConflict):
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Operation conflicted with concurrent activity, please retry"))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
