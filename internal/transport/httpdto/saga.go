package httpdto

import (
	"time"

	"tickethub-core/internal/domain/saga"
)

// StartBookingSagaRequest is used for POST /api/saga/booking
type StartBookingSagaRequest struct {
	EventID       int            `json:"eventId" binding:"required"`
	UserID        string         `json:"userId" binding:"required"`
	UserName      string         `json:"userName" binding:"required"`
	UserEmail     string         `json:"userEmail" binding:"required,email"`
	UserPhone     string         `json:"userPhone,omitempty"`
	Seats         int            `json:"seats" binding:"required,min=1"`
	TicketPrice   float64        `json:"ticketPrice" binding:"required"`
	PaymentMethod string         `json:"paymentMethod" binding:"required,oneof=card mobile_money bank_transfer"`
	Preferences   map[string]any `json:"preferences,omitempty"`
}

// StartSagaResponse is returned with 202 Accepted
type StartSagaResponse struct {
	SagaID  string `json:"sagaId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SagaStepDTO represents one recorded saga step
type SagaStepDTO struct {
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SagaStatusResponse is returned from GET /api/saga/:sagaId
type SagaStatusResponse struct {
	SagaID      string        `json:"sagaId"`
	Type        string        `json:"type"`
	Status      string        `json:"status"`
	CurrentStep int           `json:"currentStep"`
	Steps       []SagaStepDTO `json:"steps"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Error       string        `json:"error,omitempty"`
}

func FromSagaInstance(s *saga.Instance) SagaStatusResponse {
	steps := make([]SagaStepDTO, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = SagaStepDTO{
			Name:      st.Name,
			Status:    string(st.Status),
			Data:      st.Data,
			Timestamp: st.Timestamp,
		}
	}
	return SagaStatusResponse{
		SagaID:      s.ID,
		Type:        s.Type,
		Status:      string(s.Status),
		CurrentStep: s.CurrentStep,
		Steps:       steps,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Error:       s.Error,
	}
}

// SagaSummaryDTO is the list-view projection of a saga instance
type SagaSummaryDTO struct {
	SagaID    string    `json:"sagaId"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListSagasResponse is returned from GET /api/saga
type ListSagasResponse struct {
	Count int              `json:"count"`
	Sagas []SagaSummaryDTO `json:"sagas"`
}

func FromSagaInstanceSlice(sagas []*saga.Instance) ListSagasResponse {
	out := make([]SagaSummaryDTO, len(sagas))
	for i, s := range sagas {
		out[i] = SagaSummaryDTO{
			SagaID:    s.ID,
			Type:      s.Type,
			Status:    string(s.Status),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}
	return ListSagasResponse{Count: len(out), Sagas: out}
}
