package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.openai.com/v1"
	defaultModel               = "gpt-4o-mini"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("openai api key is required")

// Client wraps the OpenAI chat completions API used for short copywriting tasks.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithModel overrides the default completion model.
func WithModel(model string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(model)
		if trimmed != "" {
			c.model = trimmed
		}
	}
}

// NewClient builds the OpenAI client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Complete submits a system/user prompt pair and returns the first choice text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "openai client not configured")
	}
	if strings.TrimSpace(user) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user prompt is required")
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   120,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal completion request")
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build completion request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute completion request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "completion request failed")
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode completion response")
	}

	if len(apiResp.Choices) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion returned no choices")
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}
