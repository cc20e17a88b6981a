// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	ErrorOccurred EventType = "ERROR_OCCURRED"

	// Directory
	PortfolioChanged       EventType = "PORTFOLIO_CHANGED"
	ActivePortfolioChanged EventType = "ACTIVE_PORTFOLIO_CHANGED"

	// Reconciliation
	SummaryRefreshed    EventType = "SUMMARY_REFRESHED"
	PositionsReconciled EventType = "POSITIONS_RECONCILED"
	StaleRead           EventType = "STALE_READ"

	// Selection
	SelectionChanged EventType = "SELECTION_CHANGED"

	// Executors
	TradeExecuted   EventType = "TRADE_EXECUTED"
	OptionExercised EventType = "OPTION_EXERCISED"
	ActionFailed    EventType = "ACTION_FAILED"

	// Assistant
	AssistantReplied EventType = "ASSISTANT_REPLIED"
)

// AllEventTypes is the set a stream subscribes to when no filter is given
var AllEventTypes = []EventType{
	ErrorOccurred,
	PortfolioChanged,
	ActivePortfolioChanged,
	SummaryRefreshed,
	PositionsReconciled,
	StaleRead,
	SelectionChanged,
	TradeExecuted,
	OptionExercised,
	ActionFailed,
	AssistantReplied,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
