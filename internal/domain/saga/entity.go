package saga

import (
	"time"
)

// Status is the saga state machine. COMPLETED, COMPENSATED and
// COMPENSATION_FAILED are terminal.
type Status string

const (
	StatusStarted            Status = "STARTED"
	StatusCompleted          Status = "COMPLETED"
	StatusFailed             Status = "FAILED"
	StatusCompensating       Status = "COMPENSATING"
	StatusCompensated        Status = "COMPENSATED"
	StatusCompensationFailed Status = "COMPENSATION_FAILED"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompensated, StatusCompensationFailed:
		return true
	}
	return false
}

type StepStatus string

const (
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
)

// Step is an immutable audit record appended to an instance. Append order is
// authoritative for compensation sequencing.
type Step struct {
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

const TypeBookingProcess = "BOOKING_PROCESS"

// Instance is the mutable orchestration record for one saga run. Only the
// goroutine driving the pipeline mutates it; readers get copies from the store.
type Instance struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      Status         `json:"status"`
	Data        map[string]any `json:"data"`
	Steps       []Step         `json:"steps"`
	CurrentStep int            `json:"currentStep"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Error       string         `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (s *Instance) Clone() *Instance {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	cp.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		cp.Steps[i] = st
		cp.Steps[i].Data = make(map[string]any, len(st.Data))
		for k, v := range st.Data {
			cp.Steps[i].Data[k] = v
		}
	}
	return &cp
}

// CompletedSteps returns the COMPLETED step records in append order.
func (s *Instance) CompletedSteps() []Step {
	var out []Step
	for _, st := range s.Steps {
		if st.Status == StepCompleted {
			out = append(out, st)
		}
	}
	return out
}
