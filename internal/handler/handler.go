package handler

import (
	"errors"
	"net/http"

	"tickethub-core/internal/transport/httpdto"
	tickethub_errors "tickethub-core/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tickethub_errors.ErrValidation):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_ERROR"))
	case errors.Is(err, tickethub_errors.ErrVersionConflict):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "VERSION_CONFLICT"))
	case errors.Is(err, tickethub_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "ALREADY_EXISTS"))
	case errors.Is(err, tickethub_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, tickethub_errors.ErrUnknownStrategy):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "UNKNOWN_STRATEGY"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
	}
}
