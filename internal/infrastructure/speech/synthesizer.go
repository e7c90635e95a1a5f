// Package speech provides the speech-synthesis capability used to voice
// comic panels. Two engines implement it: the primary Murf vendor engine
// and a local system-voice fallback. A strategy tries engines in order
// and degrades to a text placeholder when every engine fails.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// Request carries everything an engine needs to voice one text.
type Request struct {
	Text     string
	VoiceID  string
	Language string
}

// Artifact is the result of a synthesis: a URL path the reader UI can
// play (or render, for text placeholders) and the engine that made it.
// Path is the backing file on disk so session deletion can remove it.
type Artifact struct {
	URL    string `json:"audio_url"`
	Engine string `json:"engine"`
	Path   string `json:"-"`
}

// Engine is one speech synthesis backend.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (Artifact, error)
}

// FallbackSynthesizer tries engines in order until one succeeds.
type FallbackSynthesizer struct {
	engines  []Engine
	audioDir string
	logger   *logging.ChanneledLogger
}

// NewFallbackSynthesizer creates the engine chain. Engines are attempted
// in the order given.
func NewFallbackSynthesizer(audioDir string, logger *logging.ChanneledLogger, engines ...Engine) *FallbackSynthesizer {
	return &FallbackSynthesizer{
		engines:  engines,
		audioDir: audioDir,
		logger:   logger,
	}
}

// Synthesize voices the request with the first engine that succeeds.
// When every engine fails a JSON text placeholder is written so the
// reader can still show the panel text.
func (fs *FallbackSynthesizer) Synthesize(ctx context.Context, req Request) (Artifact, error) {
	var lastErr error
	for _, engine := range fs.engines {
		artifact, err := engine.Synthesize(ctx, req)
		if err == nil {
			return artifact, nil
		}
		lastErr = err
		fs.logger.Vendor().Warn("Speech engine failed, trying next",
			"engine", engine.Name(),
			"error", err.Error(),
		)
	}

	artifact, err := fs.writePlaceholder(req.Text)
	if err != nil {
		return Artifact{}, fmt.Errorf("all speech engines failed (%v) and placeholder write failed: %w", lastErr, err)
	}
	return artifact, nil
}

// writePlaceholder stores the text as a JSON artifact for the frontend
// to render instead of audio.
func (fs *FallbackSynthesizer) writePlaceholder(text string) (Artifact, error) {
	if err := os.MkdirAll(fs.audioDir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("failed to create audio directory: %w", err)
	}

	filename := fmt.Sprintf("text_%s.json", ulid.Make().String())
	payload := map[string]string{
		"type":    "text_fallback",
		"text":    text,
		"message": "Audio generation unavailable - text only",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to encode placeholder: %w", err)
	}

	path := filepath.Join(fs.audioDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Artifact{}, fmt.Errorf("failed to write placeholder: %w", err)
	}

	return Artifact{URL: "/static/audio/" + filename, Engine: "placeholder", Path: path}, nil
}

// CleanupOldArtifacts removes audio files older than maxAge to bound
// disk usage, mirroring the session sweep cadence.
func CleanupOldArtifacts(audioDir string, maxAge time.Duration, logger *logging.ChanneledLogger) int {
	entries, err := os.ReadDir(audioDir)
	if err != nil {
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(audioDir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 && logger != nil {
		logger.System().Info("Cleaned up old audio artifacts", "count", removed, "maxAge", maxAge)
	}
	return removed
}
