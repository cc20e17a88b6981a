// Package selection implements the per-asset-class select-to-sell state machine.
package selection

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// Status is the machine's state
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSelected   Status = "selected"
	StatusSubmitting Status = "submitting"
)

// MsgQuantityRequired is reported when submitting a zero pending quantity
const MsgQuantityRequired = "Quantity must be greater than 0."

var (
	// ErrSubmitting is returned when re-selecting while a submit is in flight
	ErrSubmitting = errors.New("a sell is already being submitted for this selection")
	// ErrNotSelected is returned when submitting without a selection
	ErrNotSelected = errors.New("no position selected")
)

// Submitter executes the sell for the selected target
type Submitter func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome

// State is a point-in-time view of a machine
type State struct {
	AssetClass domain.AssetClass `json:"asset_class"`
	Status     Status            `json:"status"`
	TargetID   string            `json:"target_id,omitempty"`
	PendingQty decimal.Decimal   `json:"pending_qty"`
	MaxQty     decimal.Decimal   `json:"max_qty"`
	LowerBound decimal.Decimal   `json:"lower_bound"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  domain.ErrorKind  `json:"error_kind,omitempty"`
	Success    string            `json:"success,omitempty"`
}

// Machine tracks which position of one asset class is targeted for a sell.
//
// Idle -> Selected(target, pending, max) -> Submitting -> Idle on success, or
// back to Selected carrying the error. The machine does not serialize
// submits: a second Submit while one is in flight runs independently and its
// outcome is returned to its caller. A completion only moves the machine if
// no other transition happened since that submit started.
type Machine struct {
	class        domain.AssetClass
	lowerBound   decimal.Decimal
	eventManager *events.Manager
	log          zerolog.Logger

	mu         sync.Mutex
	status     Status
	targetID   string
	pendingQty decimal.Decimal
	maxQty     decimal.Decimal
	heldQty    decimal.Decimal
	stale      bool
	errMsg     string
	errKind    domain.ErrorKind
	success    string
	generation uint64
}

// NewMachine creates a machine. Pending quantities are bounded below by 0 for
// fractional classes and 1 otherwise.
func NewMachine(class domain.AssetClass, eventManager *events.Manager, log zerolog.Logger) *Machine {
	lower := decimal.NewFromInt(1)
	if class.Fractional() {
		lower = decimal.Zero
	}
	return &Machine{
		class:        class,
		lowerBound:   lower,
		eventManager: eventManager,
		log:          log.With().Str("component", "selection").Str("asset_class", string(class)).Logger(),
		status:       StatusIdle,
	}
}

// AssetClass returns the class this machine serves
func (m *Machine) AssetClass() domain.AssetClass {
	return m.class
}

// State returns a snapshot of the machine
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) stateLocked() State {
	return State{
		AssetClass: m.class,
		Status:     m.status,
		TargetID:   m.targetID,
		PendingQty: m.pendingQty,
		MaxQty:     m.maxQty,
		LowerBound: m.lowerBound,
		Error:      m.errMsg,
		ErrorKind:  m.errKind,
		Success:    m.success,
	}
}

// SelectPosition targets id with the full held quantity pending. Discrete
// classes only sell whole units, so their bound is the held quantity rounded
// down. Messages from earlier attempts are cleared. Refused while submitting.
func (m *Machine) SelectPosition(id string, maxQty decimal.Decimal) error {
	m.mu.Lock()
	if m.status == StatusSubmitting {
		m.mu.Unlock()
		return ErrSubmitting
	}

	m.generation++
	m.status = StatusSelected
	m.targetID = id
	m.heldQty = maxQty
	if !m.class.Fractional() {
		maxQty = maxQty.Floor()
	}
	m.maxQty = maxQty
	m.pendingQty = maxQty
	m.stale = false
	m.clearMessagesLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.emit(state, "")
	return nil
}

// SetPendingQty clamps q into [lowerBound, maxQty], truncating to a whole
// number first for discrete classes. No-op unless Selected.
func (m *Machine) SetPendingQty(q decimal.Decimal) {
	m.mu.Lock()
	if m.status != StatusSelected {
		m.mu.Unlock()
		return
	}
	if !m.class.Fractional() {
		q = q.Truncate(0)
	}
	m.pendingQty = clamp(q, m.lowerBound, m.maxQty)
	state := m.stateLocked()
	m.mu.Unlock()

	m.emit(state, "")
}

// ClearSelection returns to Idle, dropping the pending quantity and messages
func (m *Machine) ClearSelection() {
	m.mu.Lock()
	m.generation++
	m.resetLocked()
	m.clearMessagesLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.emit(state, "cleared")
}

// Submit runs submit for the current target and pending quantity.
func (m *Machine) Submit(ctx context.Context, submit Submitter) (domain.Outcome, error) {
	m.mu.Lock()
	if m.targetID == "" || m.status == StatusIdle {
		m.mu.Unlock()
		return domain.Outcome{}, ErrNotSelected
	}
	if !m.pendingQty.IsPositive() {
		m.errMsg = MsgQuantityRequired
		m.errKind = domain.KindValidation
		m.success = ""
		state := m.stateLocked()
		m.mu.Unlock()

		m.emit(state, "")
		return domain.Failed(domain.KindValidation, MsgQuantityRequired), nil
	}

	target, qty, maxQty, held := m.targetID, m.pendingQty, m.maxQty, m.heldQty
	gen := m.generation
	m.status = StatusSubmitting
	m.stale = false
	m.clearMessagesLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.emit(state, "")
	m.log.Debug().Str("target", target).Str("quantity", qty.String()).Msg("Submitting sell")

	outcome := submit(ctx, target, qty)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.log.Debug().Str("target", target).Msg("Selection moved on while submitting, outcome not applied")
		return outcome, nil
	}

	m.generation++
	reason := ""
	switch {
	case outcome.Success:
		m.resetLocked()
		m.success = outcome.Message
	case m.stale:
		// holdings changed under the submit; the old bound is no longer safe
		m.resetLocked()
		m.errMsg = outcome.Message
		m.errKind = outcome.Kind
		reason = "stale"
	default:
		m.status = StatusSelected
		m.targetID = target
		m.pendingQty = qty
		m.maxQty = maxQty
		m.heldQty = held
		m.errMsg = outcome.Message
		m.errKind = outcome.Kind
	}
	m.stale = false
	state = m.stateLocked()
	m.mu.Unlock()

	m.emit(state, reason)
	return outcome, nil
}

// Sync clears a selection whose target is gone or whose held quantity no
// longer matches the quantity it was selected with. holdings maps target id
// to the freshly fetched quantity. An in-flight submit is not interrupted; a
// change seen while submitting is remembered so a failed submit does not
// restore the stale selection.
func (m *Machine) Sync(holdings map[string]decimal.Decimal) {
	m.mu.Lock()
	if m.status != StatusSelected && m.status != StatusSubmitting {
		m.mu.Unlock()
		return
	}

	held, ok := holdings[m.targetID]
	if ok && held.Equal(m.heldQty) {
		m.mu.Unlock()
		return
	}
	target := m.targetID
	if m.status == StatusSubmitting {
		m.stale = true
		m.mu.Unlock()
		m.log.Debug().Str("target", target).Msg("Holdings changed while submitting")
		return
	}

	m.generation++
	m.resetLocked()
	m.clearMessagesLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.log.Info().Str("target", target).Bool("still_held", ok).Msg("Cleared stale selection")
	m.emit(state, "stale")
}

// resetLocked returns to Idle. Caller holds mu.
func (m *Machine) resetLocked() {
	m.status = StatusIdle
	m.targetID = ""
	m.pendingQty = decimal.Zero
	m.maxQty = decimal.Zero
	m.heldQty = decimal.Zero
	m.stale = false
}

func (m *Machine) clearMessagesLocked() {
	m.errMsg = ""
	m.errKind = domain.KindNone
	m.success = ""
}

func (m *Machine) emit(state State, reason string) {
	m.eventManager.EmitTyped("selection", &events.SelectionChangedData{
		AssetClass: string(state.AssetClass),
		State:      string(state.Status),
		TargetID:   state.TargetID,
		PendingQty: state.PendingQty.String(),
		Reason:     reason,
	})
}

// clamp bounds q into [lower, upper]; upper wins when the range is empty
func clamp(q, lower, upper decimal.Decimal) decimal.Decimal {
	if q.LessThan(lower) {
		q = lower
	}
	if q.GreaterThan(upper) {
		q = upper
	}
	return q
}
