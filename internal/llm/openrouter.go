// Package llm provides the OpenRouter chat-completions client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/config"
)

// Request is one completion call. System carries the composed prompt; User
// carries the raw question.
type Request struct {
	APIKey      string
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer is the language-model collaborator used by the chat pipeline.
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// APIError is returned when the upstream API answers with a non-success
// status. It carries the upstream status and message so handlers can surface
// them distinctly from transport failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenRouter API error %d: %s", e.Status, e.Message)
}

// KeyInfo is the payload returned by the OpenRouter key validation endpoint.
type KeyInfo struct {
	Label string   `json:"label"`
	Usage float64  `json:"usage"`
	Limit *float64 `json:"limit"`
}

// OpenRouter is an HTTP client for the OpenRouter chat-completions API. The
// API key travels with each request because it is runtime configuration,
// stored in the app_config row.
type OpenRouter struct {
	apiURL      string
	validateURL string
	client      *http.Client
	logger      *zap.Logger
}

// NewOpenRouter creates a client from LLM config.
func NewOpenRouter(cfg *config.LLMConfig, logger *zap.Logger) *OpenRouter {
	return &OpenRouter{
		apiURL:      cfg.APIURL,
		validateURL: cfg.ValidateURL,
		client:      &http.Client{Timeout: 120 * time.Second},
		logger:      logger,
	}
}

var _ Completer = (*OpenRouter)(nil)

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type apiResponse struct {
	Choices []struct {
		Message apiMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the system and user contents to the chat-completions endpoint
// and returns the assistant text. Non-2xx responses yield an *APIError.
func (o *OpenRouter) Complete(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(&apiRequest{
		Model: req.Model,
		Messages: []apiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.logger.Warn("OpenRouter returned non-success status",
			zap.Int("status", resp.StatusCode))
		return "", &APIError{Status: resp.StatusCode, Message: string(respBody)}
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ValidateKey checks an API key against the OpenRouter key endpoint. A 200
// yields the key info; any other status yields (nil, nil) meaning "invalid",
// and transport failures yield an error.
func (o *OpenRouter) ValidateKey(ctx context.Context, apiKey string) (*KeyInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.validateURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var parsed struct {
		Data KeyInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &parsed.Data, nil
}
