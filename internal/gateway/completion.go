package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/domain"
)

// Completer produces one assistant reply for an ordered message history.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message) (string, error)
}

// Error wraps any upstream failure. Callers treat it as transient and may
// retry the whole operation.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("completion gateway: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// OpenAIGateway speaks the OpenAI chat-completions wire format, which is
// also served by Azure OpenAI, OpenRouter, vLLM, Ollama and llama.cpp.
type OpenAIGateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewOpenAIGateway builds the production gateway client.
func NewOpenAIGateway(cfg config.GatewayConfig, logger *zap.Logger) *OpenAIGateway {
	return &OpenAIGateway{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the full conversation and returns the single reply.
func (g *OpenAIGateway) Complete(ctx context.Context, history []domain.Message) (string, error) {
	messages := make([]wireMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, wireMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(wireRequest{Model: g.model, Messages: messages})
	if err != nil {
		return "", &Error{Err: err}
	}

	endpoint := g.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("completion upstream rejected request",
			zap.Int("status", resp.StatusCode))
		return "", &Error{Err: fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(raw, 256))}
	}

	var parsed wireResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &Error{Err: fmt.Errorf("upstream error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Err: fmt.Errorf("no choices in response")}
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(raw []byte, max int) string {
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max])
}
