package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/vendors/murf"
)

type stubVoiceLister struct {
	voices     []murf.Voice
	err        error
	configured bool
}

func (sl *stubVoiceLister) ListVoices(ctx context.Context) ([]murf.Voice, error) {
	return sl.voices, sl.err
}

func (sl *stubVoiceLister) Configured() bool { return sl.configured }

func TestSupportedLanguages(t *testing.T) {
	vc := NewVoiceCatalogService(nil, testLogger(t))

	languages := vc.SupportedLanguages()
	require.Len(t, languages, 10)

	for i := 1; i < len(languages); i++ {
		assert.Less(t, languages[i-1].Code, languages[i].Code, "languages must be sorted by code")
	}
	for _, lang := range languages {
		assert.NotEmpty(t, lang.Name)
		assert.NotEmpty(t, lang.Voices["male"], "language %s", lang.Code)
		assert.NotEmpty(t, lang.Voices["female"], "language %s", lang.Code)
	}
}

func TestIsSupported(t *testing.T) {
	vc := NewVoiceCatalogService(nil, testLogger(t))

	assert.True(t, vc.IsSupported("en-US"))
	assert.True(t, vc.IsSupported("hi-IN"))
	assert.False(t, vc.IsSupported("xx-XX"))
	assert.False(t, vc.IsSupported(""))
}

func TestVoiceFor(t *testing.T) {
	vc := NewVoiceCatalogService(nil, testLogger(t))

	tests := []struct {
		name     string
		language string
		gender   string
		want     string
	}{
		{"male voice", "es-ES", "male", "es-ES-enrique"},
		{"female voice", "es-ES", "female", "es-ES-elvira"},
		{"unknown gender falls back to female", "zh-CN", "robot", "zh-CN-jiao"},
		{"empty gender falls back to female", "it-IT", "", "it-IT-greta"},
		{"unknown language falls back to base", "xx-XX", "male", "en-US-miles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vc.VoiceFor(tt.language, tt.gender))
		})
	}
}

func TestListVoicesDegradesToDefaults(t *testing.T) {
	live := []murf.Voice{{VoiceID: "en-US-custom", Name: "Custom", Language: "en-US", Gender: "female"}}

	tests := []struct {
		name   string
		lister VoiceLister
		want   []murf.Voice
	}{
		{"live catalog served when available", &stubVoiceLister{voices: live, configured: true}, live},
		{"vendor error degrades", &stubVoiceLister{err: fmt.Errorf("unreachable"), configured: true}, murf.DefaultVoices()},
		{"unconfigured vendor degrades", &stubVoiceLister{voices: live, configured: false}, murf.DefaultVoices()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := NewVoiceCatalogService(tt.lister, testLogger(t))
			assert.Equal(t, tt.want, vc.ListVoices(context.Background()))
		})
	}
}
