// Package llm writes a eulogy for a finished life through the Anthropic
// Messages API. It is optional: with no API key every call reports
// ErrDisabled and the game carries on without one.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	apiVersion  = "2023-06-01"
	model       = "claude-haiku-4-5-20251001"

	maxErrorBody = 512
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("llm client not configured")

// APIError is a non-200 answer from the Messages API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messages API returned %d: %s", e.Status, e.Body)
}

// Client sends single-turn prompts. Lives can end quickly under autoplay, so
// calls are capped per minute.
type Client struct {
	apiKey string
	url    string
	http   *http.Client
	budget budget
}

// NewClient returns nil when apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		url:    messagesURL,
		http:   &http.Client{Timeout: 30 * time.Second},
		budget: budget{perMinute: 10},
	}
}

// Enabled reports whether calls will be attempted.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// budget counts calls in fixed one-minute windows.
type budget struct {
	mu        sync.Mutex
	perMinute int
	used      int
	window    time.Time
}

func (b *budget) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.window) >= time.Minute {
		b.window, b.used = now, 0
	}
	if b.used >= b.perMinute {
		return false
	}
	b.used++
	return true
}

// prompt is the request body: one system instruction and one user turn.
type prompt struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []promptTurn `json:"messages"`
}

type promptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// reply keeps only the text blocks and token usage.
type reply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r reply) text() string {
	var parts []string
	for _, block := range r.Content {
		if block.Type == "" || block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "")
}

// Complete asks for one reply to a single user message.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if !c.budget.take(time.Now()) {
		return "", fmt.Errorf("call budget of %d per minute spent", c.budget.perMinute)
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(prompt{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []promptTurn{{Role: "user", Content: user}},
	}); err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out reply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	text := out.text()
	if text == "" {
		return "", errors.New("reply had no text")
	}

	slog.Debug("eulogy tokens", "in", out.Usage.InputTokens, "out", out.Usage.OutputTokens)
	return text, nil
}
