package httpdto

import (
	"tickethub-core/internal/conflict"
)

// ResolveConflictRequest is used for POST /api/sync/conflict
type ResolveConflictRequest struct {
	LocalData  map[string]any `json:"localData" binding:"required"`
	RemoteData map[string]any `json:"remoteData" binding:"required"`
	Strategy   string         `json:"strategy,omitempty"`
}

// ResolveConflictResponse reports detection plus the optional resolution
type ResolveConflictResponse struct {
	HasConflict  bool           `json:"hasConflict"`
	ConflictType string         `json:"conflictType,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Strategy     string         `json:"strategy,omitempty"`
	Resolution   map[string]any `json:"resolution,omitempty"`
}

func FromDetection(d conflict.Detection) ResolveConflictResponse {
	return ResolveConflictResponse{
		HasConflict:  d.HasConflict,
		ConflictType: string(d.Type),
		Details:      d.Details,
	}
}

// UnknownStrategyResponse lists the strategies a caller may request
type UnknownStrategyResponse struct {
	Error               string   `json:"error"`
	AvailableStrategies []string `json:"availableStrategies"`
}

func NewUnknownStrategyResponse(err string) UnknownStrategyResponse {
	strategies := conflict.Strategies()
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = string(s)
	}
	return UnknownStrategyResponse{Error: err, AvailableStrategies: names}
}
