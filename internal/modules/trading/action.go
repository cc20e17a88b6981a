package trading

import (
	"sync"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// ActionState is the status of one executor. At most one of Loading, Error
// and Success is set at a time.
type ActionState struct {
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Success   string           `json:"success,omitempty"`
}

// Action tracks the status of a single executor. The last completion wins.
type Action struct {
	name         string
	eventManager *events.Manager

	mu    sync.RWMutex
	state ActionState
}

// NewAction creates a tracker named after the executor it reports for
func NewAction(name string, eventManager *events.Manager) *Action {
	return &Action{name: name, eventManager: eventManager}
}

// Name returns the executor name
func (a *Action) Name() string {
	return a.name
}

// State returns the current status
func (a *Action) State() ActionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Begin clears previous messages and marks the executor busy
func (a *Action) Begin() {
	a.mu.Lock()
	a.state = ActionState{Loading: true}
	a.mu.Unlock()
}

// Finish records the outcome and clears the busy flag. Failures are also
// published as ACTION_FAILED.
func (a *Action) Finish(o domain.Outcome) domain.Outcome {
	a.mu.Lock()
	if o.Success {
		a.state = ActionState{Success: o.Message}
	} else {
		a.state = ActionState{Error: o.Message, ErrorKind: o.Kind}
	}
	a.mu.Unlock()

	if !o.Success {
		a.eventManager.EmitTyped("trading", &events.ActionFailedData{
			Action:  a.name,
			Kind:    string(o.Kind),
			Message: o.Message,
		})
	}
	return o
}

// Reject records a validation failure without touching the network
func (a *Action) Reject(message string) domain.Outcome {
	return a.Finish(domain.Failed(domain.KindValidation, message))
}
