// Package whisper provides the speech-to-text boundary backed by an
// OpenAI-compatible transcription API.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ordervox/internal/audio"
	"ordervox/internal/config"
	"ordervox/internal/services"
)

// Client calls a remote Whisper-style transcription endpoint. The call
// is billable and latency-bearing; every request carries a deadline.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New constructs a client from the transcriber configuration. The API
// key is required; base URL and model fall back to library defaults.
func New(cfg config.Transcriber, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "whisper", "init",
			"api_key is required (set [transcriber] api_key or OPENAI_API_KEY)", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

// Transcribe sends the audio bytes for transcription and returns the
// recognized text. Timeouts and transport failures are tagged so the
// pipeline can classify them for retry.
func (c *Client) Transcribe(ctx context.Context, data []byte, format audio.Format) (string, error) {
	if len(data) == 0 {
		return "", services.Wrap(services.ErrValidation, "whisper", "transcribe", "empty audio payload", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		Reader:   bytes.NewReader(data),
		FilePath: "order." + format.Extension(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "whisper", "transcribe", "call exceeded deadline", err)
		}
		return "", services.Wrap(services.ErrTransient, "whisper", "transcribe", "backend call failed", err)
	}
	return resp.Text, nil
}
