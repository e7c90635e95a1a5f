package murf

import (
	"context"
	"time"
)

// Voice describes one vendor voice.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender"`
	Description string `json:"description,omitempty"`
}

// voicesResponse is the body of GET /voices.
type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// ListVoices fetches the vendor voice catalog. Callers fall back to a
// static default catalog when the vendor is unreachable or unconfigured.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	start := time.Now()

	var resp voicesResponse
	err := c.withRetry(ctx, "list_voices", func() error {
		return c.getJSON(ctx, "/voices", &resp)
	})

	c.logger.LogVendorCall("murf", "list_voices", err == nil, time.Since(start),
		"voices", len(resp.Voices),
	)
	if err != nil {
		return nil, err
	}
	return resp.Voices, nil
}

// DefaultVoices is the static catalog served when the vendor voice
// listing is unavailable.
func DefaultVoices() []Voice {
	return []Voice{
		{VoiceID: "en-US-natalie", Name: "Natalie", Language: "English (US)", Gender: "Female", Description: "Clear and expressive female voice"},
		{VoiceID: "en-US-miles", Name: "Miles", Language: "English (US)", Gender: "Male", Description: "Professional male narrator voice"},
		{VoiceID: "en-UK-ruby", Name: "Ruby", Language: "English (UK)", Gender: "Female", Description: "Friendly and warm female voice"},
	}
}
