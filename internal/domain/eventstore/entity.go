package eventstore

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate types known to the store.
const (
	AggregateEvent       = "Event"
	AggregateReservation = "Reservation"
	AggregatePayment     = "Payment"
	AggregateUser        = "User"
)

func IsValidAggregateType(t string) bool {
	switch t {
	case AggregateEvent, AggregateReservation, AggregatePayment, AggregateUser:
		return true
	}
	return false
}

// DomainEvent represents domain_events. Rows are insert-only: there is no
// update or delete path anywhere in the codebase. The composite unique index
// on (aggregate_id, version) is what makes concurrent appends safe - the
// database rejects the losing writer.
type DomainEvent struct {
	EventID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	AggregateID   string    `gorm:"not null;uniqueIndex:idx_aggregate_version,priority:1"`
	AggregateType string    `gorm:"type:varchar(32);not null;index:idx_aggregate_type_ts,priority:1"`
	EventType     string    `gorm:"not null;index:idx_event_type_ts,priority:1"`
	EventData     string    `gorm:"type:jsonb;not null"`
	Metadata      string    `gorm:"type:jsonb"`
	Version       int       `gorm:"not null;uniqueIndex:idx_aggregate_version,priority:2;check:version >= 1"`
	Timestamp     time.Time `gorm:"not null;index:idx_aggregate_type_ts,priority:2;index:idx_event_type_ts,priority:2"`
}

func (DomainEvent) TableName() string {
	return "domain_events"
}

// Metadata carries actor and causality information alongside an event.
type Metadata struct {
	UserID        string `json:"userId,omitempty"`
	UserEmail     string `json:"userEmail,omitempty"`
	IPAddress     string `json:"ipAddress,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	CausationID   string `json:"causationId,omitempty"`
}

// Metrics is a read-only summary of the whole log.
type Metrics struct {
	TotalEvents        int64     `json:"totalEvents"`
	AggregateTypes     int       `json:"aggregateTypes"`
	EventTypes         int       `json:"eventTypes"`
	AggregateTypesList []string  `json:"aggregateTypesList"`
	EventTypesList     []string  `json:"eventTypesList"`
	Timestamp          time.Time `json:"timestamp"`
}
