// Package llm talks to an OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer generates assistant text from a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message, onChunk func(string) error) error
}

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerSecond float64
	Temperature       float64
	Timeout           time.Duration
}

// Client is a Completer backed by HTTP. It is safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a client. A zero RequestsPerSecond disables rate limiting.
func NewClient(cfg Config) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: limiter,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Complete sends the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", dal.UpstreamError("failed to decode completion", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", dal.UpstreamError("completion failed: "+out.Error.Message, resp.StatusCode, nil)
	}
	if len(out.Choices) == 0 {
		return "", dal.UpstreamError("completion returned no choices", resp.StatusCode, nil)
	}
	return out.Choices[0].Message.Content, nil
}

// Stream sends the conversation with streaming enabled and calls onChunk for
// every content delta. An error from onChunk stops the stream.
func (c *Client) Stream(ctx context.Context, messages []Message, onChunk func(string) error) error {
	resp, err := c.send(ctx, messages, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	parser := NewStreamParser(resp.Body)
	for {
		chunk, err := parser.Next()
		if err != nil {
			return dal.UpstreamError("failed to read completion stream", resp.StatusCode, err)
		}
		if chunk.Content != "" {
			if err := onChunk(chunk.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
}

func (c *Client) send(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	if !c.Configured() {
		return nil, dal.ConfigError("text generation API key is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dal.UpstreamError("completion request failed", 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, dal.UpstreamError(fmt.Sprintf("completion API returned status %d: %s", resp.StatusCode, string(bodyBytes)), resp.StatusCode, nil)
	}
	return resp, nil
}
