package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub-core/internal/domain/saga"
	tickethub_errors "tickethub-core/pkg/errors"
)

func newInstance(id string, createdAt time.Time) *saga.Instance {
	return &saga.Instance{
		ID:        id,
		Type:      saga.TypeBookingProcess,
		Status:    saga.StatusStarted,
		Data:      map[string]any{"userId": "user-1"},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemorySagaStore_PutAndGet(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newInstance("saga-1", time.Now())))

	got, err := store.Get(ctx, "saga-1")
	require.NoError(t, err)
	assert.Equal(t, "saga-1", got.ID)
	assert.Equal(t, saga.StatusStarted, got.Status)
}

func TestMemorySagaStore_PutDuplicate(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newInstance("saga-1", time.Now())))
	err := store.Put(ctx, newInstance("saga-1", time.Now()))

	assert.True(t, errors.Is(err, tickethub_errors.ErrAlreadyExists))
}

func TestMemorySagaStore_GetUnknown(t *testing.T) {
	store := NewMemorySagaStore()

	_, err := store.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, tickethub_errors.ErrNotFound))
}

func TestMemorySagaStore_GetReturnsCopy(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, newInstance("saga-1", time.Now())))

	first, err := store.Get(ctx, "saga-1")
	require.NoError(t, err)
	first.Status = saga.StatusFailed
	first.Data["userId"] = "tampered"

	second, err := store.Get(ctx, "saga-1")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusStarted, second.Status)
	assert.Equal(t, "user-1", second.Data["userId"])
}

func TestMemorySagaStore_Update(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, newInstance("saga-1", time.Now())))

	err := store.Update(ctx, "saga-1", func(in *saga.Instance) {
		in.Status = saga.StatusCompleted
		in.Steps = append(in.Steps, saga.Step{
			Name:      "SAGA_COMPLETED",
			Status:    saga.StepCompleted,
			Timestamp: time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "saga-1")
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompleted, got.Status)
	assert.Len(t, got.Steps, 1)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemorySagaStore_UpdateUnknown(t *testing.T) {
	store := NewMemorySagaStore()

	err := store.Update(context.Background(), "missing", func(in *saga.Instance) {
		in.Status = saga.StatusCompleted
	})

	assert.True(t, errors.Is(err, tickethub_errors.ErrNotFound))
}

func TestMemorySagaStore_ListOrderedByCreation(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Put(ctx, newInstance("saga-2", base.Add(time.Second))))
	require.NoError(t, store.Put(ctx, newInstance("saga-1", base)))
	require.NoError(t, store.Put(ctx, newInstance("saga-3", base.Add(2*time.Second))))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "saga-1", list[0].ID)
	assert.Equal(t, "saga-2", list[1].ID)
	assert.Equal(t, "saga-3", list[2].ID)
}

func TestMemorySagaStore_ConcurrentUpdates(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, newInstance("saga-1", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "saga-1", func(in *saga.Instance) {
				in.CurrentStep++
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "saga-1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.CurrentStep)
}
