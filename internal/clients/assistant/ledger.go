// Package assistant provides the backends that answer questions about an
// account snapshot: the ledger's assistant route and an OpenAI-compatible
// chat completion API.
package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/httpjson"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

const assistantPath = "/api/assistant/portfolio/"

// Poster is the JSON transport the ledger backend runs on
type Poster interface {
	Post(ctx context.Context, path string, body, out interface{}) error
}

// LedgerClient asks the ledger's assistant route
type LedgerClient struct {
	http Poster
	log  zerolog.Logger
}

// NewLedgerClient creates the ledger assistant backend
func NewLedgerClient(opts httpjson.Options, log zerolog.Logger) *LedgerClient {
	l := log.With().Str("client", "assistant").Logger()
	return &LedgerClient{
		http: httpjson.New(opts, l),
		log:  l,
	}
}

var _ domain.AssistantClient = (*LedgerClient)(nil)

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type askBody struct {
	Snapshot any           `json:"snapshot"`
	Message  string        `json:"message,omitempty"`
	Messages []wireMessage `json:"messages,omitempty"`
}

// Ask sends the snapshot with the conversation. A lone opening user message
// goes out as "message"; a longer history goes out as "messages".
func (c *LedgerClient) Ask(ctx context.Context, snapshot any, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("assistant history is empty")
	}

	body := askBody{Snapshot: snapshot}
	if len(history) == 1 && history[0].Role == RoleUser {
		body.Message = history[0].Content
	} else {
		body.Messages = make([]wireMessage, 0, len(history))
		for _, m := range history {
			body.Messages = append(body.Messages, wireMessage{Role: m.Role, Content: m.Content})
		}
	}

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := c.http.Post(ctx, assistantPath, body, &resp); err != nil {
		return "", fmt.Errorf("failed to ask assistant: %w", err)
	}

	c.log.Debug().Int("history", len(history)).Int("reply_len", len(resp.Reply)).Msg("Assistant replied")
	return resp.Reply, nil
}
