package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tickethub-core/internal/domain/eventstore"
	"tickethub-core/internal/repository"
	tickethub_errors "tickethub-core/pkg/errors"
	"tickethub-core/pkg/events"
	"tickethub-core/pkg/logger"

	"github.com/google/uuid"
)

const defaultQueryLimit = 100

type EventStoreService struct {
	repo      repository.EventRepository
	publisher events.Publisher
	log       *logger.Logger
}

func NewEventStoreService(repo repository.EventRepository, publisher events.Publisher, log *logger.Logger) *EventStoreService {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventStoreService{repo: repo, publisher: publisher, log: log}
}

// Append persists a new event at lastVersion+1. The version slot is claimed
// by the database's unique (aggregateId, version) constraint, not by the read
// below: when a concurrent appender wins the slot, Insert fails with
// ErrVersionConflict and the caller retries with a recomputed version.
func (s *EventStoreService) Append(ctx context.Context, aggregateID, aggregateType, eventType string, eventData map[string]any, metadata eventstore.Metadata) (eventstore.DomainEvent, error) {
	if aggregateID == "" || eventType == "" {
		return eventstore.DomainEvent{}, fmt.Errorf("%w: aggregateId and eventType are required", tickethub_errors.ErrValidation)
	}
	if !eventstore.IsValidAggregateType(aggregateType) {
		return eventstore.DomainEvent{}, fmt.Errorf("%w: unknown aggregate type %q", tickethub_errors.ErrValidation, aggregateType)
	}
	if eventData == nil {
		return eventstore.DomainEvent{}, fmt.Errorf("%w: eventData is required", tickethub_errors.ErrValidation)
	}

	if metadata.CorrelationID == "" {
		metadata.CorrelationID = uuid.NewString()
	}

	lastVersion, err := s.repo.LastVersion(ctx, aggregateID)
	if err != nil {
		return eventstore.DomainEvent{}, err
	}

	dataJSON, err := json.Marshal(eventData)
	if err != nil {
		return eventstore.DomainEvent{}, fmt.Errorf("%w: eventData is not serializable", tickethub_errors.ErrValidation)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return eventstore.DomainEvent{}, fmt.Errorf("%w: metadata is not serializable", tickethub_errors.ErrValidation)
	}

	e := eventstore.DomainEvent{
		EventID:       uuid.New(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		EventData:     string(dataJSON),
		Metadata:      string(metaJSON),
		Version:       lastVersion + 1,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, &e); err != nil {
		return eventstore.DomainEvent{}, err
	}

	s.log.InfofCtx(ctx, "event appended: %s for %s:%s v%d", eventType, aggregateType, aggregateID, e.Version)
	s.announce(ctx, e)
	return e, nil
}

// announce publishes the committed event to its aggregate type channel.
// Best-effort: a publish failure never fails the append.
func (s *EventStoreService) announce(ctx context.Context, e eventstore.DomainEvent) {
	if s.publisher == nil {
		return
	}
	env := events.Envelope{
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		OccurredAt:    e.Timestamp,
		Payload:       json.RawMessage(e.EventData),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	channel := "events:" + e.AggregateType
	if err := s.publisher.Publish(ctx, channel, payload); err != nil {
		s.log.ErrorfCtx(ctx, "failed to announce event %s on %s: %v", e.EventID, channel, err)
	}
}

func (s *EventStoreService) GetHistory(ctx context.Context, aggregateID string, fromVersion int) ([]eventstore.DomainEvent, error) {
	if aggregateID == "" {
		return nil, fmt.Errorf("%w: aggregateId is required", tickethub_errors.ErrValidation)
	}
	return s.repo.GetHistory(ctx, aggregateID, fromVersion)
}

func (s *EventStoreService) GetByType(ctx context.Context, eventType string, fromDate, toDate *time.Time, limit int) ([]eventstore.DomainEvent, error) {
	if eventType == "" {
		return nil, fmt.Errorf("%w: eventType is required", tickethub_errors.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return s.repo.GetByType(ctx, eventType, fromDate, toDate, limit)
}

func (s *EventStoreService) ListAll(ctx context.Context, q repository.ListEventsQuery) ([]eventstore.DomainEvent, int64, error) {
	if q.Limit <= 0 {
		q.Limit = defaultQueryLimit
	}
	return s.repo.ListAll(ctx, q)
}

// Reconstruct folds the aggregate's history into its current state. With
// toVersion > 0 only events up to that version are applied.
func (s *EventStoreService) Reconstruct(ctx context.Context, aggregateID string, toVersion int) (*eventstore.Aggregate, error) {
	history, err := s.GetHistory(ctx, aggregateID, 0)
	if err != nil {
		return nil, err
	}
	agg := eventstore.Replay(history, toVersion)
	if agg == nil {
		return nil, fmt.Errorf("%w: aggregate %s has no events", tickethub_errors.ErrNotFound, aggregateID)
	}
	return agg, nil
}

func (s *EventStoreService) Metrics(ctx context.Context) (eventstore.Metrics, error) {
	return s.repo.Metrics(ctx)
}
