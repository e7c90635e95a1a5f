// Package services provides the application's singleton services.
package services

import (
	"context"
	"sort"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/vendors/murf"
)

// DefaultLanguage is the language comics are assumed to be written in;
// translation is skipped when the selected language matches it.
const DefaultLanguage = "en-US"

// supportedLanguages maps language codes to display names.
var supportedLanguages = map[string]string{
	"en-US": "English - US & Canada",
	"en-UK": "English - UK",
	"es-ES": "Spanish - Spain",
	"es-MX": "Spanish - Mexico",
	"fr-FR": "French - France",
	"de-DE": "German - Germany",
	"it-IT": "Italian - Italy",
	"pt-BR": "Portuguese - Brazil",
	"zh-CN": "Chinese - China",
	"hi-IN": "Hindi - India",
}

// voicesByLanguage maps each language to its male and female voice ids.
var voicesByLanguage = map[string]map[string]string{
	"en-US": {"male": "en-US-miles", "female": "en-US-natalie"},
	"en-UK": {"male": "en-UK-theo", "female": "en-UK-ruby"},
	"es-ES": {"male": "es-ES-enrique", "female": "es-ES-elvira"},
	"es-MX": {"male": "es-MX-carlos", "female": "es-MX-valeria"},
	"fr-FR": {"male": "fr-FR-maxime", "female": "fr-FR-adélie"},
	"de-DE": {"male": "de-DE-matthias", "female": "de-DE-lia"},
	"it-IT": {"male": "it-IT-lorenzo", "female": "it-IT-greta"},
	"pt-BR": {"male": "pt-BR-heitor", "female": "pt-BR-isadora"},
	"zh-CN": {"male": "zh-CN-tao", "female": "zh-CN-jiao"},
	"hi-IN": {"male": "hi-IN-kabir", "female": "hi-IN-ayushi"},
}

// VoiceLister fetches the live vendor voice catalog.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]murf.Voice, error)
	Configured() bool
}

// VoiceCatalogService answers language and voice questions for the
// reader UI and the audio pipeline.
type VoiceCatalogService struct {
	lister VoiceLister
	logger *logging.ChanneledLogger
}

// NewVoiceCatalogService creates a voice catalog service.
func NewVoiceCatalogService(lister VoiceLister, logger *logging.ChanneledLogger) *VoiceCatalogService {
	return &VoiceCatalogService{lister: lister, logger: logger}
}

// Language describes one selectable language.
type Language struct {
	Code   string            `json:"code"`
	Name   string            `json:"name"`
	Voices map[string]string `json:"voices"`
}

// SupportedLanguages returns the selectable languages sorted by code.
func (vc *VoiceCatalogService) SupportedLanguages() []Language {
	languages := make([]Language, 0, len(supportedLanguages))
	for code, name := range supportedLanguages {
		languages = append(languages, Language{
			Code:   code,
			Name:   name,
			Voices: voicesByLanguage[code],
		})
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Code < languages[j].Code })
	return languages
}

// IsSupported reports whether a language code is selectable.
func (vc *VoiceCatalogService) IsSupported(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// VoiceFor returns the voice id for a language and speaker gender,
// defaulting to the female voice when the gender is unknown.
func (vc *VoiceCatalogService) VoiceFor(language, gender string) string {
	voices, ok := voicesByLanguage[language]
	if !ok {
		voices = voicesByLanguage[DefaultLanguage]
	}
	if voice, ok := voices[gender]; ok {
		return voice
	}
	return voices["female"]
}

// ListVoices returns the live vendor catalog, degrading to the static
// default catalog when the vendor is unreachable or unconfigured.
func (vc *VoiceCatalogService) ListVoices(ctx context.Context) []murf.Voice {
	if vc.lister != nil && vc.lister.Configured() {
		voices, err := vc.lister.ListVoices(ctx)
		if err == nil {
			return voices
		}
		vc.logger.Vendor().Warn("Voice listing failed, serving default catalog", "error", err.Error())
	}
	return murf.DefaultVoices()
}
