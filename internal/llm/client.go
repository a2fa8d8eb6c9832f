package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ErrNoCandidates means every candidate model failed or returned empty text.
var ErrNoCandidates = errors.New("no candidate model produced a response")

// Client wraps the Gemini SDK with candidate-model fallback: callers pass a
// ranked list of model names and the first one that answers with non-empty
// text wins. There is no retry against the same model.
type Client struct {
	genai *genai.Client
	log   zerolog.Logger
}

// NewClient creates a Gemini-backed client.
func NewClient(ctx context.Context, apiKey string, log zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm.NewClient: API key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm.NewClient: %w", err)
	}
	return &Client{genai: c, log: log}, nil
}

// Generate sends the parts to each candidate model in order and returns the
// first non-empty response text.
func (c *Client) Generate(ctx context.Context, models []string, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var lastErr error
	for _, name := range models {
		resp, err := c.genai.Models.GenerateContent(ctx, name, contents, nil)
		if err != nil {
			c.log.Warn().Err(err).Str("model", name).Msg("Model call failed, trying next candidate")
			lastErr = err
			continue
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
		c.log.Warn().Str("model", name).Msg("Model returned empty text, trying next candidate")
	}

	if lastErr != nil {
		return "", fmt.Errorf("llm.Generate: %w: %w", ErrNoCandidates, lastErr)
	}
	return "", fmt.Errorf("llm.Generate: %w", ErrNoCandidates)
}

// GenerateStream streams from the first candidate model that yields any text,
// calling emit for every chunk. It returns the accumulated full text. A model
// that fails before producing output is skipped; once a model has emitted
// text, its failure ends the stream with what was accumulated so far.
func (c *Client) GenerateStream(ctx context.Context, models []string, parts []*genai.Part, emit func(text string) error) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var lastErr error
	for _, name := range models {
		var accumulated string
		for resp, err := range c.genai.Models.GenerateContentStream(ctx, name, contents, nil) {
			if err != nil {
				c.log.Warn().Err(err).Str("model", name).Msg("Stream failed")
				lastErr = err
				break
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			accumulated += text
			if err := emit(text); err != nil {
				return accumulated, fmt.Errorf("llm.GenerateStream: emit: %w", err)
			}
		}
		if accumulated != "" {
			return accumulated, nil
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("llm.GenerateStream: %w: %w", ErrNoCandidates, lastErr)
	}
	return "", fmt.Errorf("llm.GenerateStream: %w", ErrNoCandidates)
}
