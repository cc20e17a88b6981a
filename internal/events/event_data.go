package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PortfolioChangedData describes a directory mutation
type PortfolioChangedData struct {
	Action      string `json:"action"` // refresh, create, rename, delete, set_default
	PortfolioID int64  `json:"portfolio_id,omitempty"`
	Count       int    `json:"count"`
}

// EventType returns the event type for PortfolioChangedData
func (d *PortfolioChangedData) EventType() EventType {
	return PortfolioChanged
}

// ActivePortfolioChangedData carries the new active id; nil when cleared
type ActivePortfolioChangedData struct {
	PortfolioID *int64 `json:"portfolio_id"`
}

// EventType returns the event type for ActivePortfolioChangedData
func (d *ActivePortfolioChangedData) EventType() EventType {
	return ActivePortfolioChanged
}

// SummaryRefreshedData contains data for SummaryRefreshed events
type SummaryRefreshedData struct {
	PortfolioID int64  `json:"portfolio_id"`
	Positions   int    `json:"positions"`
	CashBalance string `json:"cash_balance"`
}

// EventType returns the event type for SummaryRefreshedData
func (d *SummaryRefreshedData) EventType() EventType {
	return SummaryRefreshed
}

// PositionsReconciledData contains data for PositionsReconciled events
type PositionsReconciledData struct {
	AssetClass string `json:"asset_class"`
	Positions  int    `json:"positions"`
}

// EventType returns the event type for PositionsReconciledData
func (d *PositionsReconciledData) EventType() EventType {
	return PositionsReconciled
}

// StaleReadData reports a failed refresh whose previous cache was kept
type StaleReadData struct {
	Resource string `json:"resource"`
	Error    string `json:"error"`
}

// EventType returns the event type for StaleReadData
func (d *StaleReadData) EventType() EventType {
	return StaleRead
}

// SelectionChangedData mirrors a selection machine transition
type SelectionChangedData struct {
	AssetClass string `json:"asset_class"`
	State      string `json:"state"`
	TargetID   string `json:"target_id,omitempty"`
	PendingQty string `json:"pending_qty,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// EventType returns the event type for SelectionChangedData
func (d *SelectionChangedData) EventType() EventType {
	return SelectionChanged
}

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	AssetClass string `json:"asset_class"`
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Quantity   string `json:"quantity"`
	Price      string `json:"price"`
	Message    string `json:"message"`
}

// EventType returns the event type for TradeExecutedData
func (d *TradeExecutedData) EventType() EventType {
	return TradeExecuted
}

// OptionExercisedData contains data for OptionExercised events
type OptionExercisedData struct {
	Symbol         string `json:"symbol"`
	Quantity       string `json:"quantity"`
	IntrinsicTotal string `json:"intrinsic_total"`
	Message        string `json:"message"`
}

// EventType returns the event type for OptionExercisedData
func (d *OptionExercisedData) EventType() EventType {
	return OptionExercised
}

// ActionFailedData reports an executor failure shown to the user
type ActionFailedData struct {
	Action  string `json:"action"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// EventType returns the event type for ActionFailedData
func (d *ActionFailedData) EventType() EventType {
	return ActionFailed
}

// AssistantRepliedData contains data for AssistantReplied events
type AssistantRepliedData struct {
	Messages int `json:"messages"`
}

// EventType returns the event type for AssistantRepliedData
func (d *AssistantRepliedData) EventType() EventType {
	return AssistantReplied
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
