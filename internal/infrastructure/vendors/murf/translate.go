package murf

import (
	"context"
	"fmt"
	"time"
)

// translateRequest is the payload of POST /text/translate.
type translateRequest struct {
	TargetLanguage string   `json:"target_language"`
	Texts          []string `json:"texts"`
}

// Translation is one source/translated pair from the vendor.
type Translation struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
}

// translateResponse is the body of a successful translation call.
type translateResponse struct {
	Translations []Translation `json:"translations"`
}

// Translate translates texts into the target language, preserving order.
// After retries are exhausted the caller decides whether to degrade;
// this method only reports the failure.
func (c *Client) Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	start := time.Now()

	var resp translateResponse
	err := c.withRetry(ctx, "translate", func() error {
		return c.postJSON(ctx, "/text/translate", translateRequest{
			TargetLanguage: targetLanguage,
			Texts:          texts,
		}, &resp)
	})

	c.logger.LogVendorCall("murf", "translate", err == nil, time.Since(start),
		"targetLanguage", targetLanguage,
		"texts", len(texts),
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Translations) != len(texts) {
		return nil, fmt.Errorf("translation count mismatch: sent %d, received %d", len(texts), len(resp.Translations))
	}

	out := make([]string, len(resp.Translations))
	for i, tr := range resp.Translations {
		out[i] = tr.TranslatedText
	}
	return out, nil
}
