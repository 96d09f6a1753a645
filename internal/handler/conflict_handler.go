package handler

import (
	"net/http"

	"tickethub-core/internal/conflict"
	"tickethub-core/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ConflictHandler struct{}

func NewConflictHandler() *ConflictHandler {
	return &ConflictHandler{}
}

// Resolve detects a conflict between the two submitted snapshots and, when a
// strategy is named, applies it. An unknown strategy name is a caller error.
func (h *ConflictHandler) Resolve(c *gin.Context) {
	var req httpdto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_ERROR"))
		return
	}

	resp := httpdto.FromDetection(conflict.Detect(req.LocalData, req.RemoteData))

	if req.Strategy != "" {
		strategy, err := conflict.StrategyFromString(req.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewUnknownStrategyResponse(err.Error()))
			return
		}
		resolution, err := conflict.Resolve(strategy, req.LocalData, req.RemoteData)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Strategy = string(strategy)
		resp.Resolution = resolution
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
