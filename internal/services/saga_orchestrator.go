package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tickethub-core/internal/domain/saga"
	"tickethub-core/internal/repository"
	"tickethub-core/pkg/events"
	"tickethub-core/pkg/logger"

	"github.com/google/uuid"
)

// StepDefinition is one (forward, compensate) pair in a saga pipeline. The
// recorded step names mirror what each call did, e.g. RESERVATION_CREATED on
// success and RESERVATION_COMPENSATED after rollback.
type StepDefinition struct {
	Name                 string
	CompletedAs          string
	FailedAs             string
	CompensatedAs        string
	CompensationFailedAs string

	Forward    func(ctx context.Context, data map[string]any, idempotencyKey string) (map[string]any, error)
	Compensate func(ctx context.Context, data map[string]any) (map[string]any, error)
}

const sagaChannel = "saga:booking"

// SagaOrchestrator drives ordered remote steps as one logical transaction.
// Each started saga runs on its own goroutine; the store isolates its
// in-flight mutations from concurrent status readers.
type SagaOrchestrator struct {
	store     repository.SagaStore
	steps     []StepDefinition
	publisher events.Publisher
	log       *logger.Logger

	inflight sync.WaitGroup
}

func NewSagaOrchestrator(store repository.SagaStore, steps []StepDefinition, publisher events.Publisher, log *logger.Logger) *SagaOrchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &SagaOrchestrator{store: store, steps: steps, publisher: publisher, log: log}
}

// Start creates the saga and returns its id immediately; the pipeline runs
// asynchronously and its outcome is observed through GetStatus. There is no
// mid-saga cancellation: once started, the run settles into a terminal state.
func (o *SagaOrchestrator) Start(ctx context.Context, sagaType string, data map[string]any) (string, error) {
	now := time.Now()
	instance := &saga.Instance{
		ID:        uuid.NewString(),
		Type:      sagaType,
		Status:    saga.StatusStarted,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Put(ctx, instance); err != nil {
		return "", err
	}

	o.log.Infof("starting saga %s (%s)", instance.ID, sagaType)

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		// The request context dies with the HTTP response; the pipeline
		// outlives it and relies on per-call client timeouts instead.
		o.run(context.Background(), instance.ID)
	}()

	return instance.ID, nil
}

// Drain blocks until every in-flight saga has settled.
func (o *SagaOrchestrator) Drain() {
	o.inflight.Wait()
}

func (o *SagaOrchestrator) GetStatus(ctx context.Context, sagaID string) (*saga.Instance, error) {
	return o.store.Get(ctx, sagaID)
}

func (o *SagaOrchestrator) ListAll(ctx context.Context) ([]*saga.Instance, error) {
	return o.store.List(ctx)
}

func (o *SagaOrchestrator) run(ctx context.Context, sagaID string) {
	for i, step := range o.steps {
		instance, err := o.store.Get(ctx, sagaID)
		if err != nil {
			o.log.Errorf("saga %s vanished mid-run: %v", sagaID, err)
			return
		}

		key := fmt.Sprintf("%s:%s", sagaID, step.Name)
		out, err := step.Forward(ctx, instance.Data, key)
		if err != nil {
			o.log.Errorf("saga %s step %s failed: %v", sagaID, step.Name, err)
			o.recordStep(ctx, sagaID, saga.Step{
				Name:   step.FailedAs,
				Status: saga.StepFailed,
				Data:   map[string]any{"error": err.Error()},
			})
			o.fail(ctx, sagaID, err)
			o.compensate(ctx, sagaID)
			return
		}

		nextStep := i + 1
		o.update(ctx, sagaID, func(s *saga.Instance) {
			for k, v := range out {
				s.Data[k] = v
			}
			s.Steps = append(s.Steps, saga.Step{
				Name:      step.CompletedAs,
				Status:    saga.StepCompleted,
				Data:      out,
				Timestamp: time.Now(),
			})
			s.CurrentStep = nextStep
		})
		o.log.Infof("saga %s step %s completed", sagaID, step.Name)
	}

	o.update(ctx, sagaID, func(s *saga.Instance) {
		s.Status = saga.StatusCompleted
		s.Steps = append(s.Steps, saga.Step{
			Name:      "SAGA_COMPLETED",
			Status:    saga.StepCompleted,
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
	})
	o.log.Infof("saga %s completed", sagaID)
	o.notify(ctx, sagaID)
}

func (o *SagaOrchestrator) fail(ctx context.Context, sagaID string, cause error) {
	o.update(ctx, sagaID, func(s *saga.Instance) {
		s.Status = saga.StatusFailed
		s.Error = cause.Error()
		s.Steps = append(s.Steps, saga.Step{
			Name:      "SAGA_FAILED",
			Status:    saga.StepFailed,
			Data:      map[string]any{"error": cause.Error()},
			Timestamp: time.Now(),
		})
	})
}

// compensate undoes the COMPLETED steps in reverse append order. Every
// compensation is attempted regardless of earlier compensation failures; the
// saga settles into COMPENSATED only when all attempts succeeded.
func (o *SagaOrchestrator) compensate(ctx context.Context, sagaID string) {
	o.update(ctx, sagaID, func(s *saga.Instance) {
		s.Status = saga.StatusCompensating
	})

	instance, err := o.store.Get(ctx, sagaID)
	if err != nil {
		return
	}

	completed := instance.CompletedSteps()
	anyFailed := false
	for i := len(completed) - 1; i >= 0; i-- {
		def := o.stepByCompletedName(completed[i].Name)
		if def == nil || def.Compensate == nil {
			continue
		}

		out, err := def.Compensate(ctx, instance.Data)
		if err != nil {
			anyFailed = true
			o.log.Errorf("saga %s compensation %s failed: %v", sagaID, def.Name, err)
			o.recordStep(ctx, sagaID, saga.Step{
				Name:   def.CompensationFailedAs,
				Status: saga.StepFailed,
				Data:   map[string]any{"error": err.Error()},
			})
			continue
		}
		o.recordStep(ctx, sagaID, saga.Step{
			Name:   def.CompensatedAs,
			Status: saga.StepCompleted,
			Data:   out,
		})
	}

	o.update(ctx, sagaID, func(s *saga.Instance) {
		if anyFailed {
			s.Status = saga.StatusCompensationFailed
			return
		}
		s.Status = saga.StatusCompensated
		s.Steps = append(s.Steps, saga.Step{
			Name:      "SAGA_COMPENSATED",
			Status:    saga.StepCompleted,
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
	})
	o.log.Infof("saga %s compensation settled", sagaID)
	o.notify(ctx, sagaID)
}

func (o *SagaOrchestrator) stepByCompletedName(name string) *StepDefinition {
	for i := range o.steps {
		if o.steps[i].CompletedAs == name {
			return &o.steps[i]
		}
	}
	return nil
}

func (o *SagaOrchestrator) recordStep(ctx context.Context, sagaID string, step saga.Step) {
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}
	o.update(ctx, sagaID, func(s *saga.Instance) {
		s.Steps = append(s.Steps, step)
	})
}

func (o *SagaOrchestrator) update(ctx context.Context, sagaID string, fn func(*saga.Instance)) {
	if err := o.store.Update(ctx, sagaID, fn); err != nil {
		o.log.Errorf("failed to update saga %s: %v", sagaID, err)
	}
}

// notify publishes the saga's terminal status. This is the explicit channel
// callers subscribe to instead of registering in-process listeners.
func (o *SagaOrchestrator) notify(ctx context.Context, sagaID string) {
	if o.publisher == nil {
		return
	}
	instance, err := o.store.Get(ctx, sagaID)
	if err != nil {
		return
	}
	summary, err := json.Marshal(map[string]any{
		"sagaId": instance.ID,
		"type":   instance.Type,
		"status": instance.Status,
		"error":  instance.Error,
	})
	if err != nil {
		return
	}
	env := events.Envelope{
		EventType:     "saga." + string(instance.Status),
		AggregateType: "Saga",
		AggregateID:   instance.ID,
		OccurredAt:    time.Now().UTC(),
		Payload:       summary,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := o.publisher.Publish(ctx, sagaChannel, payload); err != nil {
		o.log.Errorf("failed to publish saga %s notification: %v", sagaID, err)
	}
}
