package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tickethub-core/internal/domain/eventstore"
	tickethub_errors "tickethub-core/pkg/errors"
)

// MemoryEventRepository is an in-memory EventRepository used by tests and
// local development. The mutex makes the (aggregateId, version) uniqueness
// check and the insert one atomic step, the same guarantee the Postgres
// implementation gets from its unique index.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []eventstore.DomainEvent
	taken  map[string]map[int]struct{}
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{taken: make(map[string]map[int]struct{})}
}

func (r *MemoryEventRepository) Insert(_ context.Context, e *eventstore.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions, ok := r.taken[e.AggregateID]
	if !ok {
		versions = make(map[int]struct{})
		r.taken[e.AggregateID] = versions
	}
	if _, exists := versions[e.Version]; exists {
		return tickethub_errors.ErrVersionConflict
	}
	versions[e.Version] = struct{}{}
	r.events = append(r.events, *e)
	return nil
}

func (r *MemoryEventRepository) LastVersion(_ context.Context, aggregateID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	last := 0
	for v := range r.taken[aggregateID] {
		if v > last {
			last = v
		}
	}
	return last, nil
}

func (r *MemoryEventRepository) GetHistory(_ context.Context, aggregateID string, fromVersion int) ([]eventstore.DomainEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []eventstore.DomainEvent
	for _, e := range r.events {
		if e.AggregateID == aggregateID && e.Version > fromVersion {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *MemoryEventRepository) GetByType(_ context.Context, eventType string, fromDate, toDate *time.Time, limit int) ([]eventstore.DomainEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []eventstore.DomainEvent
	for _, e := range r.events {
		if e.EventType != eventType {
			continue
		}
		if fromDate != nil && e.Timestamp.Before(*fromDate) {
			continue
		}
		if toDate != nil && !e.Timestamp.Before(*toDate) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryEventRepository) ListAll(_ context.Context, q ListEventsQuery) ([]eventstore.DomainEvent, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []eventstore.DomainEvent
	for _, e := range r.events {
		if q.AggregateType != "" && e.AggregateType != q.AggregateType {
			continue
		}
		if q.EventType != "" && e.EventType != q.EventType {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *MemoryEventRepository) Metrics(_ context.Context) (eventstore.Metrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aggregateTypes := map[string]struct{}{}
	eventTypes := map[string]struct{}{}
	for _, e := range r.events {
		aggregateTypes[e.AggregateType] = struct{}{}
		eventTypes[e.EventType] = struct{}{}
	}

	m := eventstore.Metrics{
		TotalEvents:        int64(len(r.events)),
		AggregateTypes:     len(aggregateTypes),
		EventTypes:         len(eventTypes),
		AggregateTypesList: sortedKeys(aggregateTypes),
		EventTypesList:     sortedKeys(eventTypes),
		Timestamp:          time.Now().UTC(),
	}
	return m, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
