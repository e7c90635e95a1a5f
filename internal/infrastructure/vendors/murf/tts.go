package murf

import (
	"context"
	"errors"
	"time"
)

// speechRequest is the payload of POST /speech/generate.
type speechRequest struct {
	Text        string `json:"text"`
	VoiceID     string `json:"voiceId"`
	Format      string `json:"format"`
	ChannelType string `json:"channelType"`
	SampleRate  int    `json:"sampleRate"`
}

// speechResponse carries the vendor-hosted URL of the generated audio.
type speechResponse struct {
	AudioFile string `json:"audioFile"`
}

// GenerateSpeech synthesizes text with the given voice and returns the
// MP3 bytes. The vendor returns a hosted URL which is downloaded before
// returning, so callers own the artifact lifetime.
func (c *Client) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	start := time.Now()

	var audio []byte
	err := c.withRetry(ctx, "generate_speech", func() error {
		payload := speechRequest{
			Text:        text,
			VoiceID:     voiceID,
			Format:      "MP3",
			ChannelType: "MONO",
			SampleRate:  44100,
		}

		var resp speechResponse
		if err := c.postJSON(ctx, "/speech/generate", payload, &resp); err != nil {
			return err
		}
		if resp.AudioFile == "" {
			return errors.New("no audioFile URL in response")
		}

		data, err := c.download(ctx, resp.AudioFile)
		if err != nil {
			return err
		}
		audio = data
		return nil
	})

	c.logger.LogVendorCall("murf", "generate_speech", err == nil, time.Since(start),
		"voiceId", voiceID,
		"textLength", len(text),
	)
	if err != nil {
		return nil, err
	}
	return audio, nil
}
