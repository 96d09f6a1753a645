package httpdto

import (
	"encoding/json"
	"time"

	"tickethub-core/internal/domain/eventstore"
)

// AppendEventRequest is used for POST /api/events
type AppendEventRequest struct {
	AggregateID   string         `json:"aggregateId" binding:"required"`
	AggregateType string         `json:"aggregateType" binding:"required,oneof=Event Reservation Payment User"`
	EventType     string         `json:"eventType" binding:"required"`
	EventData     map[string]any `json:"eventData" binding:"required"`
	Metadata      *MetadataDTO   `json:"metadata,omitempty"`
}

// MetadataDTO mirrors eventstore.Metadata on the wire
type MetadataDTO struct {
	UserID        string `json:"userId,omitempty"`
	UserEmail     string `json:"userEmail,omitempty"`
	IPAddress     string `json:"ipAddress,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	CausationID   string `json:"causationId,omitempty"`
}

func (m *MetadataDTO) ToDomain() eventstore.Metadata {
	if m == nil {
		return eventstore.Metadata{}
	}
	return eventstore.Metadata{
		UserID:        m.UserID,
		UserEmail:     m.UserEmail,
		IPAddress:     m.IPAddress,
		UserAgent:     m.UserAgent,
		CorrelationID: m.CorrelationID,
		CausationID:   m.CausationID,
	}
}

// DomainEventDTO represents a stored event in API responses
type DomainEventDTO struct {
	EventID       string          `json:"eventId"`
	AggregateID   string          `json:"aggregateId"`
	AggregateType string          `json:"aggregateType"`
	EventType     string          `json:"eventType"`
	EventData     json.RawMessage `json:"eventData"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
}

func FromDomainEvent(e eventstore.DomainEvent) DomainEventDTO {
	dto := DomainEventDTO{
		EventID:       e.EventID.String(),
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		EventType:     e.EventType,
		EventData:     json.RawMessage(e.EventData),
		Version:       e.Version,
		Timestamp:     e.Timestamp,
	}
	if e.Metadata != "" {
		dto.Metadata = json.RawMessage(e.Metadata)
	}
	return dto
}

func FromDomainEventSlice(events []eventstore.DomainEvent) []DomainEventDTO {
	out := make([]DomainEventDTO, len(events))
	for i, e := range events {
		out[i] = FromDomainEvent(e)
	}
	return out
}

// AppendEventResponse is returned from POST /api/events
type AppendEventResponse struct {
	Event DomainEventDTO `json:"event"`
}

// HistoryResponse is returned when listing an aggregate's history
type HistoryResponse struct {
	AggregateID string           `json:"aggregateId"`
	Events      []DomainEventDTO `json:"events"`
	Count       int              `json:"count"`
	FromVersion int              `json:"fromVersion"`
}

// EventsByTypeResponse is returned from the events-by-type query
type EventsByTypeResponse struct {
	EventType string           `json:"eventType"`
	Events    []DomainEventDTO `json:"events"`
	Count     int              `json:"count"`
}

// ListEventsResponse is returned when paging through the whole log
type ListEventsResponse struct {
	Events []DomainEventDTO `json:"events"`
	Count  int              `json:"count"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// AggregateStateResponse is returned from the reconstruction endpoint
type AggregateStateResponse struct {
	AggregateID     string         `json:"aggregateId"`
	AggregateType   string         `json:"aggregateType"`
	Version         int            `json:"version"`
	State           map[string]any `json:"state"`
	AppliedEvents   int            `json:"appliedEvents"`
	ReconstructedAt time.Time      `json:"reconstructedAt"`
}

func FromAggregate(a *eventstore.Aggregate) AggregateStateResponse {
	return AggregateStateResponse{
		AggregateID:     a.AggregateID,
		AggregateType:   a.AggregateType,
		Version:         a.Version,
		State:           a.State,
		AppliedEvents:   a.AppliedEvents,
		ReconstructedAt: a.ReconstructedAt,
	}
}
