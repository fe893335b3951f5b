package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/testtrackhq/testtrack-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the workflow failure taxonomy onto distinct HTTP
// statuses so the front end can tell "no permission" from "no such record"
// from "the system is missing required reference data".
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		RespondError(c, http.StatusUnauthorized, "unauthenticated", err)
	case errors.Is(err, services.ErrUnauthorized):
		RespondError(c, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrInvalidPriority):
		RespondError(c, http.StatusUnprocessableEntity, "invalid_status", err)
	case errors.Is(err, services.ErrPriorityMissing):
		RespondError(c, http.StatusInternalServerError, "seed_data_missing", err)
	case errors.Is(err, services.ErrHasExecutions), errors.Is(err, services.ErrHasLinkedCase):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusBadRequest, "", err)
	}
}
