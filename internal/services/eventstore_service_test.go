package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub-core/internal/domain/eventstore"
	"tickethub-core/internal/repository"
	tickethub_errors "tickethub-core/pkg/errors"
	"tickethub-core/pkg/events"
	"tickethub-core/pkg/logger"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newEventStoreService(pub events.Publisher) *EventStoreService {
	return NewEventStoreService(repository.NewMemoryEventRepository(), pub, logger.NewNop())
}

func TestAppend_AssignsSequentialVersions(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		e, err := svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationUpdated",
			map[string]any{"seats": want}, eventstore.Metadata{UserID: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, want, e.Version)
	}
}

func TestAppend_ValidationErrors(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()
	data := map[string]any{"seats": 1}

	tests := []struct {
		name          string
		aggregateID   string
		aggregateType string
		eventType     string
		eventData     map[string]any
	}{
		{"missing aggregateId", "", eventstore.AggregateReservation, "ReservationCreated", data},
		{"missing eventType", "res-1", eventstore.AggregateReservation, "", data},
		{"unknown aggregateType", "res-1", "Inventory", "ReservationCreated", data},
		{"nil eventData", "res-1", eventstore.AggregateReservation, "ReservationCreated", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Append(ctx, tt.aggregateID, tt.aggregateType, tt.eventType, tt.eventData, eventstore.Metadata{})
			assert.True(t, errors.Is(err, tickethub_errors.ErrValidation))
		})
	}
}

func TestAppend_DefaultsCorrelationID(t *testing.T) {
	svc := newEventStoreService(nil)

	e, err := svc.Append(context.Background(), "res-1", eventstore.AggregateReservation, "ReservationCreated",
		map[string]any{"seats": 2}, eventstore.Metadata{})
	require.NoError(t, err)

	var meta eventstore.Metadata
	require.NoError(t, json.Unmarshal([]byte(e.Metadata), &meta))
	assert.NotEmpty(t, meta.CorrelationID)
}

func TestAppend_ConcurrentWritersNeverShareAVersion(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	versions := map[int]int{}
	conflicts := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationUpdated",
				map[string]any{"attempt": true}, eventstore.Metadata{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				require.True(t, errors.Is(err, tickethub_errors.ErrVersionConflict))
				conflicts++
				return
			}
			versions[e.Version]++
		}()
	}
	wg.Wait()

	for v, count := range versions {
		assert.Equal(t, 1, count, "version %d claimed more than once", v)
	}
	assert.Equal(t, writers, len(versions)+conflicts)
}

func TestAppend_AnnouncesOnAggregateChannel(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newEventStoreService(pub)

	_, err := svc.Append(context.Background(), "pay-1", eventstore.AggregatePayment, "PaymentCaptured",
		map[string]any{"amount": 5000}, eventstore.Metadata{})
	require.NoError(t, err)

	require.Len(t, pub.channels, 1)
	assert.Equal(t, "events:Payment", pub.channels[0])

	var env map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, "PaymentCaptured", env["event_type"])
	assert.Equal(t, "pay-1", env["aggregate_id"])
}

func TestGetHistory_FromVersion(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationUpdated",
			map[string]any{"n": i}, eventstore.Metadata{})
		require.NoError(t, err)
	}

	history, err := svc.GetHistory(ctx, "res-1", 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, 3, history[1].Version)
}

func TestReconstruct_FoldsHistory(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()

	_, err := svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationCreated",
		map[string]any{"seats": 4, "status": "pending"}, eventstore.Metadata{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationConfirmed",
		map[string]any{"status": "confirmed"}, eventstore.Metadata{})
	require.NoError(t, err)

	agg, err := svc.Reconstruct(ctx, "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Version)
	assert.Equal(t, "confirmed", agg.State["status"])

	earlier, err := svc.Reconstruct(ctx, "res-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, earlier.Version)
	assert.Equal(t, "pending", earlier.State["status"])
}

func TestReconstruct_UnknownAggregate(t *testing.T) {
	svc := newEventStoreService(nil)

	_, err := svc.Reconstruct(context.Background(), "missing", 0)

	assert.True(t, errors.Is(err, tickethub_errors.ErrNotFound))
}

func TestMetrics_CountsDistinctTypes(t *testing.T) {
	svc := newEventStoreService(nil)
	ctx := context.Background()

	_, err := svc.Append(ctx, "res-1", eventstore.AggregateReservation, "ReservationCreated",
		map[string]any{"seats": 2}, eventstore.Metadata{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "pay-1", eventstore.AggregatePayment, "PaymentCaptured",
		map[string]any{"amount": 100}, eventstore.Metadata{})
	require.NoError(t, err)
	_, err = svc.Append(ctx, "pay-2", eventstore.AggregatePayment, "PaymentCaptured",
		map[string]any{"amount": 200}, eventstore.Metadata{})
	require.NoError(t, err)

	m, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.TotalEvents)
	assert.Equal(t, 2, m.AggregateTypes)
	assert.Equal(t, 2, m.EventTypes)
	assert.ElementsMatch(t, []string{"Reservation", "Payment"}, m.AggregateTypesList)
}
