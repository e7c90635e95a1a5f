// Package murf provides the Murf AI HTTP client used for speech
// synthesis, text translation, and voice listing. Transient vendor
// failures (rate limits, timeouts, 5xx) are retried with exponential
// backoff up to a bounded attempt count.
package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// Client is an authenticated Murf API client
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewClient creates a Murf client. An empty apiKey leaves the client
// unconfigured; callers are expected to fall back to local engines.
func NewClient(apiKey, baseURL string, timeout time.Duration, maxRetries int, logger *logging.ChanneledLogger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// postJSON issues one POST and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewVendorTransient("murf", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errs.NewVendor("murf", resp.StatusCode, fmt.Errorf("%s: %s", path, string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewVendor("murf", resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err))
	}
	return nil
}

// getJSON issues one GET with bearer auth and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewVendorTransient("murf", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errs.NewVendor("murf", resp.StatusCode, fmt.Errorf("%s: %s", path, string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewVendor("murf", resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err))
	}
	return nil
}

// withRetry runs op with exponential backoff, retrying only transient
// vendor errors and stopping after the configured attempt count.
func (c *Client) withRetry(ctx context.Context, operation string, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !errs.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Vendor().Warn("Retrying Murf call",
			"operation", operation,
			"attempt", attempt,
			"error", err.Error(),
		)
		return err
	}, policy)
}

// download fetches a vendor-hosted artifact (the generated audio file URL).
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewVendorTransient("murf", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewVendor("murf", resp.StatusCode, errors.New("failed to download audio file"))
	}

	return io.ReadAll(resp.Body)
}
