// Package model wraps the Gemini API behind the one call the assistant
// needs: send a transcript, get a short plain-text reply.
package model

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/logger"
)

// DefaultModel is the Gemini model used unless overridden.
const DefaultModel = "gemini-2.5-flash"

// Fixed decoding configuration. Replies are short spoken answers, so
// the parameters never vary per call.
const (
	temperature     = 0.7
	topP            = 0.95
	topK            = 40
	maxOutputTokens = 4096
)

// systemInstruction constrains the response style so replies are usable
// as speech.
const systemInstruction = `You are a helpful voice assistant. ` +
	`Keep every reply to five lines or fewer. ` +
	`Respond in plain text only: no markdown, no code blocks, no emoji. ` +
	`Respond in English.`

// Option configures the Client.
type Option func(*Client)

// WithModel overrides the default model name.
func WithModel(name string) Option {
	return func(c *Client) { c.model = name }
}

// Client talks to the Gemini API. Each Send opens a fresh chat so no
// conversation context leaks between utterances.
type Client struct {
	gen   *genai.Client
	model string
	log   *logger.Logger
}

// Compile-time interface check.
var _ domain.ModelClient = (*Client)(nil)

// NewClient creates a Gemini client from the given API key.
func NewClient(ctx context.Context, apiKey string, log *logger.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, domain.ErrNoAPIKey
	}

	gen, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("model: client init: %w", err)
	}

	c := &Client{
		gen:   gen,
		model: DefaultModel,
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](temperature),
		TopP:              genai.Ptr[float32](topP),
		TopK:              genai.Ptr[float32](topK),
		MaxOutputTokens:   maxOutputTokens,
		ResponseMIMEType:  "text/plain",
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
}

// Send opens a new chat, streams the reply for the given transcript,
// and returns the collected text.
func (c *Client) Send(ctx context.Context, transcript string) (string, error) {
	chat, err := c.gen.Chats.Create(ctx, c.model, c.config(), nil)
	if err != nil {
		return "", fmt.Errorf("model: create chat: %w", err)
	}

	c.log.Debug("model: sending %d chars to %s", len(transcript), c.model)

	var sb strings.Builder
	for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: transcript}) {
		if err != nil {
			return "", fmt.Errorf("model: stream: %w", err)
		}
		sb.WriteString(resp.Text())
	}

	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", domain.ErrEmptyReply
	}

	c.log.Debug("model: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
