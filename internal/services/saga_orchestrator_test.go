package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tickethub-core/internal/clients"
	"tickethub-core/internal/domain/saga"
	"tickethub-core/internal/repository"
	tickethub_errors "tickethub-core/pkg/errors"
	"tickethub-core/pkg/logger"
)

type mockReservationClient struct {
	mock.Mock
}

func (m *mockReservationClient) Create(ctx context.Context, req clients.CreateReservationRequest, idempotencyKey string) (clients.Reservation, error) {
	args := m.Called(ctx, req, idempotencyKey)
	return args.Get(0).(clients.Reservation), args.Error(1)
}

func (m *mockReservationClient) Compensate(ctx context.Context, reservationID, reason string) error {
	args := m.Called(ctx, reservationID, reason)
	return args.Error(0)
}

type mockPaymentClient struct {
	mock.Mock
}

func (m *mockPaymentClient) Create(ctx context.Context, req clients.CreatePaymentRequest, idempotencyKey string) (clients.Payment, error) {
	args := m.Called(ctx, req, idempotencyKey)
	return args.Get(0).(clients.Payment), args.Error(1)
}

func (m *mockPaymentClient) Compensate(ctx context.Context, paymentID, reason string) error {
	args := m.Called(ctx, paymentID, reason)
	return args.Error(0)
}

func bookingPayloadData() map[string]any {
	return BookingData(BookingPayload{
		EventID:     7,
		UserID:      "user-1",
		UserName:    "Awa Diop",
		UserEmail:   "awa@example.com",
		Seats:       2,
		TicketPrice: 5000,
	})
}

func startBookingSaga(t *testing.T, reservations clients.ReservationClient, payments clients.PaymentClient) (*SagaOrchestrator, string) {
	t.Helper()
	store := repository.NewMemorySagaStore()
	orch := NewSagaOrchestrator(store, BookingSteps(reservations, payments), nil, logger.NewNop())

	sagaID, err := orch.Start(context.Background(), saga.TypeBookingProcess, bookingPayloadData())
	require.NoError(t, err)
	orch.Drain()
	return orch, sagaID
}

func stepNames(instance *saga.Instance) []string {
	names := make([]string, len(instance.Steps))
	for i, s := range instance.Steps {
		names[i] = s.Name
	}
	return names
}

func TestBookingSaga_HappyPath(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Reservation{ID: "res-1", Status: "confirmed"}, nil)
	payments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Payment{ID: "pay-1", Status: "completed"}, nil)

	orch, sagaID := startBookingSaga(t, reservations, payments)

	instance, err := orch.GetStatus(context.Background(), sagaID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompleted, instance.Status)
	assert.Equal(t, []string{"RESERVATION_CREATED", "PAYMENT_COMPLETED", "SAGA_COMPLETED"}, stepNames(instance))
	assert.Equal(t, "res-1", instance.Data["reservationId"])
	assert.Equal(t, "pay-1", instance.Data["paymentId"])
	assert.Equal(t, float64(10000), instance.Data["amount"])

	reservations.AssertNotCalled(t, "Compensate", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "Compensate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingSaga_PaymentFailureCompensatesReservation(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Reservation{ID: "res-1"}, nil)
	payments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Payment{}, errors.New("card declined"))
	reservations.On("Compensate", mock.Anything, "res-1", mock.Anything).Return(nil)

	orch, sagaID := startBookingSaga(t, reservations, payments)

	instance, err := orch.GetStatus(context.Background(), sagaID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensated, instance.Status)
	assert.Equal(t, []string{
		"RESERVATION_CREATED",
		"PAYMENT_FAILED",
		"SAGA_FAILED",
		"RESERVATION_COMPENSATED",
		"SAGA_COMPENSATED",
	}, stepNames(instance))
	assert.Equal(t, "card declined", instance.Error)

	reservations.AssertNumberOfCalls(t, "Compensate", 1)
	payments.AssertNotCalled(t, "Compensate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingSaga_ReservationFailureHasNothingToCompensate(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Reservation{}, errors.New("event sold out"))

	orch, sagaID := startBookingSaga(t, reservations, payments)

	instance, err := orch.GetStatus(context.Background(), sagaID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensated, instance.Status)
	assert.Equal(t, []string{"RESERVATION_FAILED", "SAGA_FAILED", "SAGA_COMPENSATED"}, stepNames(instance))

	reservations.AssertNotCalled(t, "Compensate", mock.Anything, mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingSaga_CompensationFailure(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Reservation{ID: "res-1"}, nil)
	payments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Payment{}, errors.New("card declined"))
	reservations.On("Compensate", mock.Anything, "res-1", mock.Anything).
		Return(errors.New("reservation service down"))

	orch, sagaID := startBookingSaga(t, reservations, payments)

	instance, err := orch.GetStatus(context.Background(), sagaID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCompensationFailed, instance.Status)
	assert.Contains(t, stepNames(instance), "RESERVATION_COMPENSATION_FAILED")
	assert.NotContains(t, stepNames(instance), "SAGA_COMPENSATED")
}

func TestBookingSaga_IdempotencyKeysDeriveFromSagaID(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	var reservationKey, paymentKey string
	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reservationKey = args.String(2) }).
		Return(clients.Reservation{ID: "res-1"}, nil)
	payments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { paymentKey = args.String(2) }).
		Return(clients.Payment{ID: "pay-1"}, nil)

	_, sagaID := startBookingSaga(t, reservations, payments)

	assert.Equal(t, sagaID+":reservation", reservationKey)
	assert.Equal(t, sagaID+":payment", paymentKey)
}

func TestBookingSaga_PaymentRequestCarriesReservation(t *testing.T) {
	reservations := &mockReservationClient{}
	payments := &mockPaymentClient{}

	reservations.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(clients.Reservation{ID: "res-1"}, nil)

	var paymentReq clients.CreatePaymentRequest
	payments.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { paymentReq = args.Get(1).(clients.CreatePaymentRequest) }).
		Return(clients.Payment{ID: "pay-1"}, nil)

	startBookingSaga(t, reservations, payments)

	assert.Equal(t, "res-1", paymentReq.ReservationID)
	assert.Equal(t, "user-1", paymentReq.UserID)
	assert.Equal(t, float64(10000), paymentReq.Amount)
	assert.Equal(t, defaultCurrency, paymentReq.Currency)
	assert.Equal(t, "card", paymentReq.PaymentMethod)
}

func TestGetStatus_UnknownSaga(t *testing.T) {
	orch := NewSagaOrchestrator(repository.NewMemorySagaStore(), nil, nil, logger.NewNop())

	_, err := orch.GetStatus(context.Background(), "missing")

	assert.True(t, errors.Is(err, tickethub_errors.ErrNotFound))
}
