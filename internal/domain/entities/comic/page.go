// Package comic provides domain entities for comic page analysis.
// It defines the panel, text element, and page analysis structures
// produced by the vision analysis stage.
package comic

import "time"

// Stage status values shared by page analyses and audio artifacts.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Bounds describes a panel's position as percentages of the page dimensions.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextElement is one piece of text extracted from a panel.
// Type is one of "speech", "thought", "narration", "sound_effect".
type TextElement struct {
	Type              string `json:"type"`
	Text              string `json:"text"`
	TranslatedText    string `json:"translated_text,omitempty"`
	Speaker           string `json:"speaker"`
	SpeakerGender     string `json:"speaker_gender"`
	VisualDescription string `json:"visual_description,omitempty"`
}

// Panel is one sub-region of a comic page in reading order.
type Panel struct {
	PanelID       int           `json:"panel_id"`
	ReadingOrder  int           `json:"reading_order"`
	PanelIndex    int           `json:"panel_index"`
	IsFirst       bool          `json:"is_first"`
	IsLast        bool          `json:"is_last"`
	Bounds        Bounds        `json:"bounds"`
	TextElements  []TextElement `json:"text_elements"`
	Description   string        `json:"description"`
	TextForSpeech string        `json:"text_for_speech,omitempty"`
	AudioURL      string        `json:"audio_url,omitempty"`
	HasAudio      bool          `json:"has_audio"`
	VoiceID       string        `json:"voice_id,omitempty"`
}

// PageAnalysis is the vision analysis result for one page.
type PageAnalysis struct {
	PageNumber   int     `json:"page_number"`
	Panels       []Panel `json:"panels"`
	PageSummary  string  `json:"page_summary"`
	TotalPanels  int     `json:"total_panels"`
	TranslatedTo string  `json:"translated_to,omitempty"`

	// TranslationFailure records the last failed translation attempt so
	// the preload status can surface the stage as failed.
	TranslationFailure string `json:"translation_failure,omitempty"`

	Status     string    `json:"status"`
	Failure    string    `json:"failure,omitempty"`
	Attempts   int       `json:"attempts"`
	AnalyzedAt time.Time `json:"analyzed_at,omitempty"`
}

// AudioArtifact tracks narration audio generated for one page.
type AudioArtifact struct {
	PageNumber  int       `json:"page_number"`
	Language    string    `json:"language"`
	Engine      string    `json:"engine,omitempty"` // "murf" or "local"
	Status      string    `json:"status"`
	Failure     string    `json:"failure,omitempty"`
	PanelAudio  []string  `json:"panel_audio,omitempty"` // URL path per panel, in reading order
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// NewPageAnalysis creates a pending analysis record for a page.
func NewPageAnalysis(pageNumber int) *PageAnalysis {
	return &PageAnalysis{
		PageNumber: pageNumber,
		Status:     StatusPending,
	}
}

// NewAudioArtifact creates a pending audio record for a page.
func NewAudioArtifact(pageNumber int, language string) *AudioArtifact {
	return &AudioArtifact{
		PageNumber: pageNumber,
		Language:   language,
		Status:     StatusPending,
	}
}

// OrderedPanelTexts returns each panel's narration text in reading order,
// preferring translated text when available.
func (pa *PageAnalysis) OrderedPanelTexts() []string {
	texts := make([]string, 0, len(pa.Panels))
	for _, panel := range pa.Panels {
		texts = append(texts, panel.TextForSpeech)
	}
	return texts
}
