package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

// LocalEngine voices text with the system espeak voice. It exists so the
// reader keeps working when the vendor is down or unconfigured; quality
// is secondary.
type LocalEngine struct {
	binary   string
	audioDir string
}

// NewLocalEngine creates the local system-voice fallback engine.
func NewLocalEngine(audioDir string) *LocalEngine {
	return &LocalEngine{binary: "espeak", audioDir: audioDir}
}

// Name identifies this engine in artifacts and logs.
func (e *LocalEngine) Name() string { return "local" }

// Synthesize renders text to a WAV artifact with espeak.
func (e *LocalEngine) Synthesize(ctx context.Context, req Request) (Artifact, error) {
	if _, err := exec.LookPath(e.binary); err != nil {
		return Artifact{}, fmt.Errorf("local voice unavailable: %w", err)
	}

	if err := os.MkdirAll(e.audioDir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("failed to create audio directory: %w", err)
	}

	filename := fmt.Sprintf("fallback_%s.wav", ulid.Make().String())
	path := filepath.Join(e.audioDir, filename)

	args := []string{"-w", path, "-s", "150"}
	if voice := espeakVoice(req.Language); voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, req.Text)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(path)
		return Artifact{}, fmt.Errorf("espeak failed: %w: %s", err, string(out))
	}

	return Artifact{URL: "/static/audio/" + filename, Engine: e.Name(), Path: path}, nil
}

// espeakVoice maps a BCP-47-ish language tag to an espeak voice name.
func espeakVoice(language string) string {
	switch language {
	case "", "en-US", "en-UK":
		return "en"
	case "es-ES", "es-MX":
		return "es"
	case "fr-FR":
		return "fr"
	case "de-DE":
		return "de"
	case "it-IT":
		return "it"
	case "pt-BR":
		return "pt"
	case "zh-CN":
		return "zh"
	case "hi-IN":
		return "hi"
	default:
		return ""
	}
}
