// Package assistant keeps the conversation with the portfolio assistant.
// The transcript is append-only; every request carries the whole history.
package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	assistantclient "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/assistant"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// Session messages
const (
	MsgRequestFailed      = "Assistant request failed"
	MsgPortfolioNotLoaded = "Portfolio is not loaded yet."
	MsgEmptyMessage       = "Message is required."

	// OpeningPrompt is sent once, when the session is first opened
	OpeningPrompt = "Explain this virtual stock portfolio: cash, positions, market value, and unrealized P/L. Point out any concentration, big winners/losers, and anything a student should pay attention to."
)

// State is what the chat panel renders
type State struct {
	Open     bool                 `json:"open"`
	Messages []domain.ChatMessage `json:"messages"`
	Loading  bool                 `json:"loading"`
	Error    string               `json:"error,omitempty"`
}

// Session is one conversation about the currently loaded summary
type Session struct {
	client       domain.AssistantClient
	summaries    domain.SummaryReader
	eventManager *events.Manager
	log          zerolog.Logger

	mu       sync.Mutex
	open     bool
	messages []domain.ChatMessage
	inflight int
	errMsg   string
}

// NewSession creates an empty, closed session
func NewSession(client domain.AssistantClient, summaries domain.SummaryReader, eventManager *events.Manager, log zerolog.Logger) *Session {
	return &Session{
		client:       client,
		summaries:    summaries,
		eventManager: eventManager,
		log:          log.With().Str("module", "assistant").Logger(),
	}
}

// State returns a copy of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Open:     s.open,
		Messages: append([]domain.ChatMessage{}, s.messages...),
		Loading:  s.inflight > 0,
		Error:    s.errMsg,
	}
}

// Open shows the panel. The first open of an empty transcript asks the
// opening prompt; later opens only clear the error.
func (s *Session) Open(ctx context.Context) domain.Outcome {
	snapshot := s.summaries.Summary()
	if snapshot == nil {
		return domain.Failed(domain.KindValidation, MsgPortfolioNotLoaded)
	}

	s.mu.Lock()
	s.open = true
	s.errMsg = ""
	if len(s.messages) > 0 {
		s.mu.Unlock()
		return domain.Succeeded("")
	}
	s.inflight++
	s.mu.Unlock()

	opening := []domain.ChatMessage{{Role: assistantclient.RoleUser, Content: OpeningPrompt}}
	return s.ask(ctx, snapshot, opening)
}

// Send appends the user's message and asks for a reply to the whole
// transcript
func (s *Session) Send(ctx context.Context, text string) domain.Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Failed(domain.KindValidation, MsgEmptyMessage)
	}
	snapshot := s.summaries.Summary()
	if snapshot == nil {
		return domain.Failed(domain.KindValidation, MsgPortfolioNotLoaded)
	}

	s.mu.Lock()
	s.messages = append(s.messages, domain.ChatMessage{
		ID:      uuid.NewString(),
		Role:    assistantclient.RoleUser,
		Content: text,
	})
	history := append([]domain.ChatMessage(nil), s.messages...)
	s.errMsg = ""
	s.inflight++
	s.mu.Unlock()

	return s.ask(ctx, snapshot, history)
}

// Close hides the panel and keeps the transcript
func (s *Session) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// Reset discards the transcript so the next Open starts over
func (s *Session) Reset() {
	s.mu.Lock()
	s.open = false
	s.messages = nil
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Session) ask(ctx context.Context, snapshot *domain.Summary, history []domain.ChatMessage) domain.Outcome {
	reply, err := s.client.Ask(ctx, snapshot, history)

	if err != nil {
		o := domain.OutcomeFromError(err, domain.KindExecution, MsgRequestFailed)
		s.mu.Lock()
		s.inflight--
		s.errMsg = o.Message
		s.mu.Unlock()

		s.log.Warn().Err(err).Msg("Assistant request failed")
		s.eventManager.EmitTyped("assistant", &events.ActionFailedData{
			Action:  "assistant",
			Kind:    string(o.Kind),
			Message: o.Message,
		})
		return o
	}

	s.mu.Lock()
	s.inflight--
	if reply != "" {
		s.messages = append(s.messages, domain.ChatMessage{
			ID:      uuid.NewString(),
			Role:    assistantclient.RoleAssistant,
			Content: reply,
		})
	}
	count := len(s.messages)
	s.mu.Unlock()

	s.eventManager.EmitTyped("assistant", &events.AssistantRepliedData{Messages: count})
	return domain.Succeeded(reply)
}
