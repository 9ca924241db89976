// Package analyzer sends filtered award data to an LLM chat-completions
// API and parses the structured target list out of the response.
package analyzer

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
)

const (
	openAIEndpoint    = "https://api.openai.com/v1/chat/completions"
	xaiEndpoint       = "https://api.x.ai/v1/chat/completions"
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"

	anthropicVersion = "2023-06-01"

	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-7-sonnet-latest"
	defaultXAIModel       = "grok-2-latest"

	defaultMaxTokens   = 4096
	defaultTemperature = 0.1
	defaultHTTPTimeout = 120 * time.Second
)

var (
	ErrUnknownProvider      = errors.New("unknown provider")
	ErrMissingAPIKey        = errors.New("api key is required")
	ErrEmptyResponse        = errors.New("empty response from provider")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// Provider is the LLM boundary. Send submits one prompt with an optional
// system message and returns the raw response text.
type Provider interface {
	Send(ctx context.Context, systemMsg, prompt string) (string, error)
}

// Options configures NewProvider. Zero-value fields fall back to
// per-provider defaults; Endpoint is overridable for tests.
type Options struct {
	Name        string
	Model       string
	APIKey      string
	Endpoint    string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// NewProvider builds a Provider for "openai", "anthropic" or "xai".
func NewProvider(opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	switch strings.ToLower(opts.Name) {
	case "openai":
		return newChatProvider(opts, openAIEndpoint, defaultOpenAIModel), nil
	case "xai":
		return newChatProvider(opts, xaiEndpoint, defaultXAIModel), nil
	case "anthropic":
		if opts.Endpoint == "" {
			opts.Endpoint = anthropicEndpoint
		}

		if opts.Model == "" {
			opts.Model = defaultAnthropicModel
		}

		return &anthropicProvider{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Name)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatProvider speaks the OpenAI-compatible chat-completions format,
// which xAI shares.
type chatProvider struct {
	opts Options
}

func newChatProvider(opts Options, endpoint, model string) *chatProvider {
	if opts.Endpoint == "" {
		opts.Endpoint = endpoint
	}

	if opts.Model == "" {
		opts.Model = model
	}

	return &chatProvider{opts: opts}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *chatProvider) Send(ctx context.Context, systemMsg, prompt string) (string, error) {
	// The json_object response format requires the prompt to mention JSON.
	if !strings.Contains(strings.ToLower(prompt), "json") {
		prompt += "\n\nProvide your response in JSON format."
	}

	var messages []chatMessage
	if systemMsg != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemMsg})
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload := chatRequest{
		Model:       p.opts.Model,
		Messages:    messages,
		Temperature: p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	body, err := postJSON(ctx, p.opts.HTTPClient, p.opts.Endpoint, payload, map[string]string{
		"Authorization": "Bearer " + p.opts.APIKey,
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

type anthropicProvider struct {
	opts Options
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropicProvider) Send(ctx context.Context, systemMsg, prompt string) (string, error) {
	payload := anthropicRequest{
		Model:       p.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
		System:      systemMsg,
	}

	body, err := postJSON(ctx, p.opts.HTTPClient, p.opts.Endpoint, payload, map[string]string{
		"x-api-key":         p.opts.APIKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Content[0].Text, nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(body))
	}

	return body, nil
}
