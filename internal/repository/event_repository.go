package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"tickethub-core/internal/domain/eventstore"
	tickethub_errors "tickethub-core/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresEventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Insert(ctx context.Context, e *eventstore.DomainEvent) error {
	res := r.db.WithContext(ctx).Create(e)
	if res.Error != nil {
		// The composite (aggregate_id, version) index is the optimistic
		// concurrency check; any other duplicate is an eventId reuse.
		if constraint, ok := uniqueViolation(res.Error); ok {
			if strings.Contains(constraint, "aggregate_version") {
				return tickethub_errors.ErrVersionConflict
			}
			return tickethub_errors.ErrAlreadyExists
		}
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return tickethub_errors.ErrVersionConflict
		}
		return res.Error
	}
	return nil
}

func (r *PostgresEventRepository) LastVersion(ctx context.Context, aggregateID string) (int, error) {
	var e eventstore.DomainEvent
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("version DESC").
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return e.Version, nil
}

func (r *PostgresEventRepository) GetHistory(ctx context.Context, aggregateID string, fromVersion int) ([]eventstore.DomainEvent, error) {
	var events []eventstore.DomainEvent
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ? AND version > ?", aggregateID, fromVersion).
		Order("version ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresEventRepository) GetByType(ctx context.Context, eventType string, fromDate, toDate *time.Time, limit int) ([]eventstore.DomainEvent, error) {
	q := r.db.WithContext(ctx).Where("event_type = ?", eventType)
	if fromDate != nil {
		q = q.Where("timestamp >= ?", *fromDate)
	}
	if toDate != nil {
		q = q.Where("timestamp < ?", *toDate)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var events []eventstore.DomainEvent
	err := q.Order("timestamp DESC").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresEventRepository) ListAll(ctx context.Context, query ListEventsQuery) ([]eventstore.DomainEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&eventstore.DomainEvent{})
	if query.AggregateType != "" {
		q = q.Where("aggregate_type = ?", query.AggregateType)
	}
	if query.EventType != "" {
		q = q.Where("event_type = ?", query.EventType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}

	var events []eventstore.DomainEvent
	if err := q.Order("timestamp DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *PostgresEventRepository) Metrics(ctx context.Context) (eventstore.Metrics, error) {
	var m eventstore.Metrics

	err := r.db.WithContext(ctx).Model(&eventstore.DomainEvent{}).Count(&m.TotalEvents).Error
	if err != nil {
		return eventstore.Metrics{}, err
	}

	err = r.db.WithContext(ctx).Model(&eventstore.DomainEvent{}).
		Distinct("aggregate_type").
		Order("aggregate_type ASC").
		Pluck("aggregate_type", &m.AggregateTypesList).Error
	if err != nil {
		return eventstore.Metrics{}, err
	}

	err = r.db.WithContext(ctx).Model(&eventstore.DomainEvent{}).
		Distinct("event_type").
		Order("event_type ASC").
		Pluck("event_type", &m.EventTypesList).Error
	if err != nil {
		return eventstore.Metrics{}, err
	}

	m.AggregateTypes = len(m.AggregateTypesList)
	m.EventTypes = len(m.EventTypesList)
	m.Timestamp = time.Now().UTC()
	return m, nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
