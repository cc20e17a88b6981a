package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const systemPrompt = `You are a friendly finance tutor inside a paper-trading app for students.
All money is virtual. Answer using only the account snapshot below and keep
explanations short and concrete. Never give personalised investment advice.

Account snapshot (JSON):
%s`

// OpenAIConfig configures the OpenAI-compatible backend
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional, for compatible gateways
	Model   string
}

// OpenAIClient answers through a chat completion API
type OpenAIClient struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIClient creates the OpenAI-compatible backend
func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		log:    log.With().Str("client", "openai_assistant").Logger(),
	}
}

var _ domain.AssistantClient = (*OpenAIClient)(nil)

// Ask embeds the snapshot in the system prompt and replays the history
func (c *OpenAIClient) Ask(ctx context.Context, snapshot any, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("assistant history is empty")
	}

	req, err := c.buildRequest(snapshot, history)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.APIError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.Debug().
		Str("model", c.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion received")
	return reply, nil
}

func (c *OpenAIClient) buildRequest(snapshot any, history []domain.ChatMessage) (openai.ChatCompletionRequest, error) {
	snap, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return openai.ChatCompletionRequest{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, snap),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}, nil
}
