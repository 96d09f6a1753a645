package repository

import (
	"context"
	"time"

	"tickethub-core/internal/domain/eventstore"
	"tickethub-core/internal/domain/saga"
)

// ListEventsQuery holds the optional filters for paging through the whole log.
type ListEventsQuery struct {
	Limit         int
	Offset        int
	AggregateType string
	EventType     string
}

type EventRepository interface {
	// Insert persists an event under the constraint that (aggregateId, version)
	// is unique across the log. Returns ErrVersionConflict when a concurrent
	// writer already took that version.
	Insert(ctx context.Context, e *eventstore.DomainEvent) error
	LastVersion(ctx context.Context, aggregateID string) (int, error)
	GetHistory(ctx context.Context, aggregateID string, fromVersion int) ([]eventstore.DomainEvent, error)
	GetByType(ctx context.Context, eventType string, fromDate, toDate *time.Time, limit int) ([]eventstore.DomainEvent, error)
	ListAll(ctx context.Context, q ListEventsQuery) ([]eventstore.DomainEvent, int64, error)
	Metrics(ctx context.Context) (eventstore.Metrics, error)
}

// SagaStore is the registry mapping sagaId to its instance. Get and List
// return copies: the driving goroutine mutates through Update while status
// readers may be concurrent.
type SagaStore interface {
	Put(ctx context.Context, s *saga.Instance) error
	Get(ctx context.Context, id string) (*saga.Instance, error)
	Update(ctx context.Context, id string, fn func(*saga.Instance)) error
	List(ctx context.Context) ([]*saga.Instance, error)
}
