package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/vendors/murf"
)

// MurfEngine voices text through the Murf vendor API.
type MurfEngine struct {
	client   *murf.Client
	audioDir string
}

// NewMurfEngine creates the primary vendor engine writing into audioDir.
func NewMurfEngine(client *murf.Client, audioDir string) *MurfEngine {
	return &MurfEngine{client: client, audioDir: audioDir}
}

// Name identifies this engine in artifacts and logs.
func (e *MurfEngine) Name() string { return "murf" }

// Synthesize generates vendor audio and stores it as an MP3 artifact.
func (e *MurfEngine) Synthesize(ctx context.Context, req Request) (Artifact, error) {
	if !e.client.Configured() {
		return Artifact{}, errors.New("murf API key not configured")
	}

	audio, err := e.client.GenerateSpeech(ctx, req.Text, req.VoiceID)
	if err != nil {
		return Artifact{}, err
	}

	if err := os.MkdirAll(e.audioDir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("failed to create audio directory: %w", err)
	}

	filename := fmt.Sprintf("audio_%s.mp3", ulid.Make().String())
	path := filepath.Join(e.audioDir, filename)
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return Artifact{}, fmt.Errorf("failed to write audio artifact: %w", err)
	}

	return Artifact{URL: "/static/audio/" + filename, Engine: e.Name(), Path: path}, nil
}
