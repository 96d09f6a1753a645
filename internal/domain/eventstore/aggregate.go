package eventstore

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Aggregate is the state derived by folding an event history. It is never
// stored; every reconstruction replays the log from the beginning.
type Aggregate struct {
	AggregateID     string         `json:"aggregateId"`
	AggregateType   string         `json:"aggregateType"`
	Version         int            `json:"version"`
	State           map[string]any `json:"state"`
	AppliedEvents   int            `json:"appliedEvents"`
	ReconstructedAt time.Time      `json:"reconstructedAt"`
}

// Applier folds one event's payload into the aggregate state. Appliers must
// be pure: the same event sequence always yields the same state.
type Applier func(state map[string]any, data map[string]any)

var (
	appliersMu sync.RWMutex
	appliers   = map[string]Applier{}
)

// RegisterApplier installs a state-transition function for an event type,
// replacing the default merge behavior.
func RegisterApplier(eventType string, fn Applier) {
	appliersMu.Lock()
	defer appliersMu.Unlock()
	appliers[eventType] = fn
}

func applierFor(eventType string) Applier {
	appliersMu.RLock()
	fn, ok := appliers[eventType]
	appliersMu.RUnlock()
	if ok {
		return fn
	}
	return func(state map[string]any, data map[string]any) {
		for k, v := range data {
			state[k] = v
		}
		switch {
		case strings.HasSuffix(eventType, "Cancelled"):
			state["status"] = "cancelled"
		case strings.HasSuffix(eventType, "Deleted"):
			state["status"] = "deleted"
		}
	}
}

// Replay folds an ascending event history into an Aggregate. Events with
// version > toVersion are skipped when toVersion > 0. Returns nil when no
// event falls inside the bound.
func Replay(history []DomainEvent, toVersion int) *Aggregate {
	var agg *Aggregate
	for _, e := range history {
		if toVersion > 0 && e.Version > toVersion {
			continue
		}
		if agg == nil {
			agg = &Aggregate{
				AggregateID:   e.AggregateID,
				AggregateType: e.AggregateType,
				State:         map[string]any{},
			}
		}

		data := map[string]any{}
		if e.EventData != "" {
			// Malformed payloads cannot happen through Append, which only
			// stores marshalled maps; skip silently rather than fail replay.
			_ = json.Unmarshal([]byte(e.EventData), &data)
		}
		applierFor(e.EventType)(agg.State, data)
		agg.Version = e.Version
		agg.AppliedEvents++
	}
	if agg != nil {
		agg.ReconstructedAt = time.Now().UTC()
	}
	return agg
}
