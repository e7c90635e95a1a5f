package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/stores"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/monitoring"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/pdf"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/speech"
)

// VisionAnalyzer turns a page image into panels in reading order.
type VisionAnalyzer interface {
	AnalyzePage(ctx context.Context, imagePath string) ([]comic.Panel, string, error)
	Configured() bool
}

// Translator translates a batch of texts, preserving order and count.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error)
	Configured() bool
}

// Synthesizer voices one text into a playable artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, req speech.Request) (speech.Artifact, error)
}

// ComicReaderService orchestrates the full reading pipeline: upload and
// page extraction, vision analysis, translation, and audio generation.
// It owns no vendor logic itself; each stage delegates to an
// infrastructure client and the service handles session bookkeeping.
type ComicReaderService struct {
	store      *stores.SessionStore
	extractor  *pdf.Extractor
	vision     VisionAnalyzer
	translator Translator
	synth      Synthesizer
	voices     *VoiceCatalogService
	perf       *performance.Tracker
	monitor    *monitoring.SessionMonitor
	logger     *logging.ChanneledLogger
	uploadDir  string
	maxUpload  int64
}

// NewComicReaderService wires the orchestrator.
func NewComicReaderService(
	store *stores.SessionStore,
	extractor *pdf.Extractor,
	vision VisionAnalyzer,
	translator Translator,
	synth Synthesizer,
	voices *VoiceCatalogService,
	perf *performance.Tracker,
	monitor *monitoring.SessionMonitor,
	logger *logging.ChanneledLogger,
	uploadDir string,
	maxUpload int64,
) *ComicReaderService {
	return &ComicReaderService{
		store:      store,
		extractor:  extractor,
		vision:     vision,
		translator: translator,
		synth:      synth,
		voices:     voices,
		perf:       perf,
		monitor:    monitor,
		logger:     logger,
		uploadDir:  uploadDir,
		maxUpload:  maxUpload,
	}
}

// Store exposes the session store for handlers and the cleanup worker.
func (cr *ComicReaderService) Store() *stores.SessionStore {
	return cr.store
}

// VisionConfigured reports whether the vision vendor has credentials.
func (cr *ComicReaderService) VisionConfigured() bool {
	return cr.vision.Configured()
}

// SpeechConfigured reports whether the speech vendor has credentials.
func (cr *ComicReaderService) SpeechConfigured() bool {
	return cr.translator.Configured()
}

// CreateSession validates and stores an uploaded PDF, extracts its
// pages, and registers a new reading session. Validation happens before
// any file is written or any vendor is called.
func (cr *ComicReaderService) CreateSession(ctx context.Context, filename string, size int64, body io.Reader, language string) (*session.Session, error) {
	if err := pdf.ValidateUpload(filename, size, cr.maxUpload); err != nil {
		cr.monitor.RecordUploadRejected()
		return nil, err
	}
	if language == "" {
		language = DefaultLanguage
	}
	if !cr.voices.IsSupported(language) {
		cr.monitor.RecordUploadRejected()
		return nil, errs.NewValidation("unsupported language: %s", language)
	}

	marker := cr.perf.StartOperationWithContext(ctx, "create_session", "")
	defer cr.perf.CompleteOperation(marker)

	id := cr.store.NewID()
	filePath := filepath.Join(cr.uploadDir, id+".pdf")
	if err := saveUpload(filePath, body); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	pages, err := cr.extractor.ExtractPages(ctx, filePath)
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}

	sess := session.New(id, filename, filePath, language, pages)
	cr.store.Put(sess)
	cr.monitor.RecordSessionCreated()
	marker.SessionID = id

	cr.logger.Session().Info("Session created",
		"sessionId", id, "filename", filename, "pages", len(pages), "language", language)
	return sess, nil
}

func saveUpload(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// Session resolves a session id, bumping its last-access time.
func (cr *ComicReaderService) Session(id string) (*session.Session, error) {
	sess, err := cr.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Mu.Lock()
	sess.Touch()
	sess.Mu.Unlock()
	return sess, nil
}

// AnalyzePage runs vision analysis for one page, caching the result on
// the session. A page already analyzed returns the cached analysis; a
// page currently being analyzed (by a preload worker or a concurrent
// request) returns the in-progress record rather than starting a
// duplicate vendor call.
func (cr *ComicReaderService) AnalyzePage(ctx context.Context, sess *session.Session, page int) (*comic.PageAnalysis, error) {
	sess.Mu.Lock()
	imagePath := sess.PageImage(page)
	if imagePath == "" {
		sess.Mu.Unlock()
		return nil, errs.NewValidation("invalid page number: %d (total pages %d)", page, sess.TotalPages)
	}
	analysis, ok := sess.Analyses[page]
	if ok && (analysis.Status == comic.StatusDone || analysis.Status == comic.StatusInProgress) {
		sess.Mu.Unlock()
		return analysis, nil
	}
	if !ok {
		analysis = comic.NewPageAnalysis(page)
		sess.Analyses[page] = analysis
	}
	// A retry reuses the failed record so the attempt count stays cumulative.
	analysis.Status = comic.StatusInProgress
	analysis.Failure = ""
	analysis.Attempts++
	sessionID := sess.ID
	sess.Mu.Unlock()

	marker := cr.perf.StartOperationWithContext(ctx, "analyze_page", sessionID)
	defer cr.perf.CompleteOperation(marker)

	panels, summary, err := cr.vision.AnalyzePage(ctx, imagePath)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if err != nil {
		analysis.Status = comic.StatusFailed
		analysis.Failure = err.Error()
		cr.logger.Session().Error("Page analysis failed",
			"sessionId", sessionID, "page", page, "error", err.Error())
		return analysis, err
	}

	for i := range panels {
		panels[i].TextForSpeech = speechText(&panels[i])
	}
	analysis.Panels = panels
	analysis.PageSummary = summary
	analysis.TotalPanels = len(panels)
	analysis.Status = comic.StatusDone
	analysis.AnalyzedAt = marker.StartTime

	cr.logger.Session().Info("Page analyzed",
		"sessionId", sessionID, "page", page, "panels", len(panels))
	return analysis, nil
}

// speechText assembles the narration script for one panel: scene
// narration first, then dialogue attributed to speakers, then sound
// effects.
func speechText(panel *comic.Panel) string {
	var parts []string
	for _, el := range panel.TextElements {
		if el.Type != "narration" {
			continue
		}
		parts = append(parts, elementText(el))
	}
	for _, el := range panel.TextElements {
		speaker := el.Speaker
		if speaker == "" || strings.EqualFold(speaker, "unknown") {
			speaker = "Someone"
		}
		switch el.Type {
		case "speech":
			parts = append(parts, fmt.Sprintf("%s says: %s", speaker, elementText(el)))
		case "thought":
			parts = append(parts, fmt.Sprintf("%s thinks: %s", speaker, elementText(el)))
		}
	}
	for _, el := range panel.TextElements {
		if el.Type != "sound_effect" {
			continue
		}
		parts = append(parts, "Sound effect: "+elementText(el))
	}
	if len(parts) == 0 && panel.Description != "" {
		parts = append(parts, panel.Description)
	}
	return strings.Join(parts, ". ")
}

func elementText(el comic.TextElement) string {
	if el.TranslatedText != "" {
		return el.TranslatedText
	}
	return el.Text
}

// TranslatePanels translates every text element of an analyzed page
// and rebuilds each panel's narration script in the target language.
// Translating to the base language is a no-op.
func (cr *ComicReaderService) TranslatePanels(ctx context.Context, sess *session.Session, page int, targetLanguage string) (*comic.PageAnalysis, error) {
	if !cr.voices.IsSupported(targetLanguage) {
		return nil, errs.NewValidation("unsupported language: %s", targetLanguage)
	}

	sess.Mu.Lock()
	analysis, ok := sess.Analyses[page]
	if !ok || analysis.Status != comic.StatusDone {
		sess.Mu.Unlock()
		return nil, errs.NewValidation("page %d has not been analyzed yet", page)
	}
	if targetLanguage == DefaultLanguage || analysis.TranslatedTo == targetLanguage {
		sess.Mu.Unlock()
		return analysis, nil
	}

	// Flatten element texts across panels so the vendor call is one batch.
	var texts []string
	type slot struct{ panel, element int }
	var slots []slot
	for pi := range analysis.Panels {
		for ei := range analysis.Panels[pi].TextElements {
			texts = append(texts, analysis.Panels[pi].TextElements[ei].Text)
			slots = append(slots, slot{pi, ei})
		}
	}
	sessionID := sess.ID
	sess.Mu.Unlock()

	if len(texts) == 0 {
		return analysis, nil
	}

	marker := cr.perf.StartOperationWithContext(ctx, "translate_panels", sessionID)
	defer cr.perf.CompleteOperation(marker)

	translated, err := cr.translator.Translate(ctx, texts, targetLanguage)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if err != nil {
		analysis.TranslationFailure = err.Error()
		cr.logger.Session().Error("Panel translation failed",
			"sessionId", sessionID, "page", page, "language", targetLanguage, "error", err.Error())
		return nil, err
	}
	analysis.TranslationFailure = ""
	for i, s := range slots {
		analysis.Panels[s.panel].TextElements[s.element].TranslatedText = translated[i]
	}
	for pi := range analysis.Panels {
		analysis.Panels[pi].TextForSpeech = speechText(&analysis.Panels[pi])
		// Stale audio voiced the untranslated script.
		analysis.Panels[pi].AudioURL = ""
		analysis.Panels[pi].HasAudio = false
	}
	analysis.TranslatedTo = targetLanguage
	delete(sess.Audio, page)

	cr.logger.Session().Info("Page translated",
		"sessionId", sessionID, "page", page, "language", targetLanguage, "texts", len(texts))
	return analysis, nil
}

// GenerateAudioForText voices one text with an explicit or
// gender-derived voice. Used by the direct audio endpoint.
func (cr *ComicReaderService) GenerateAudioForText(ctx context.Context, sess *session.Session, text, voiceID, gender string) (speech.Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return speech.Artifact{}, errs.NewValidation("text must not be empty")
	}
	sess.Mu.RLock()
	language := sess.Language
	sessionID := sess.ID
	sess.Mu.RUnlock()

	if voiceID == "" || voiceID == "default" {
		voiceID = cr.voices.VoiceFor(language, gender)
	}

	marker := cr.perf.StartOperationWithContext(ctx, "generate_audio", sessionID)
	defer cr.perf.CompleteOperation(marker)

	artifact, err := cr.synth.Synthesize(ctx, speech.Request{
		Text:     text,
		VoiceID:  voiceID,
		Language: language,
	})
	if err != nil {
		return artifact, err
	}
	if artifact.Path != "" {
		sess.Mu.Lock()
		sess.AudioFiles = append(sess.AudioFiles, artifact.Path)
		sess.Mu.Unlock()
	}
	return artifact, nil
}

// GeneratePageAudio voices every panel of an analyzed page in reading
// order, picking each panel's voice from the dominant speaker gender.
// Results are cached on the session; an already generated page returns
// the cached artifact.
func (cr *ComicReaderService) GeneratePageAudio(ctx context.Context, sess *session.Session, page int) (*comic.AudioArtifact, error) {
	sess.Mu.Lock()
	analysis, ok := sess.Analyses[page]
	if !ok || analysis.Status != comic.StatusDone {
		sess.Mu.Unlock()
		return nil, errs.NewValidation("page %d has not been analyzed yet", page)
	}
	if existing, ok := sess.Audio[page]; ok {
		if existing.Status == comic.StatusDone || existing.Status == comic.StatusInProgress {
			sess.Mu.Unlock()
			return existing, nil
		}
	}
	language := sess.Language
	artifact := comic.NewAudioArtifact(page, language)
	artifact.Status = comic.StatusInProgress
	sess.Audio[page] = artifact
	sessionID := sess.ID

	type job struct {
		panelIndex int
		text       string
		voiceID    string
	}
	jobs := make([]job, 0, len(analysis.Panels))
	for i := range analysis.Panels {
		text := analysis.Panels[i].TextForSpeech
		if strings.TrimSpace(text) == "" {
			continue
		}
		jobs = append(jobs, job{
			panelIndex: i,
			text:       text,
			voiceID:    cr.voices.VoiceFor(language, dominantGender(&analysis.Panels[i])),
		})
	}
	sess.Mu.Unlock()

	marker := cr.perf.StartOperationWithContext(ctx, "generate_page_audio", sessionID)
	defer cr.perf.CompleteOperation(marker)

	type result struct {
		panelIndex int
		artifact   speech.Artifact
		voiceID    string
	}
	results := make([]result, 0, len(jobs))
	var firstErr error
	var engine string
	for _, j := range jobs {
		out, err := cr.synth.Synthesize(ctx, speech.Request{
			Text:     j.text,
			VoiceID:  j.voiceID,
			Language: language,
		})
		if err != nil {
			firstErr = err
			break
		}
		engine = out.Engine
		results = append(results, result{panelIndex: j.panelIndex, artifact: out, voiceID: j.voiceID})
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	for _, r := range results {
		analysis.Panels[r.panelIndex].AudioURL = r.artifact.URL
		analysis.Panels[r.panelIndex].HasAudio = true
		analysis.Panels[r.panelIndex].VoiceID = r.voiceID
		artifact.PanelAudio = append(artifact.PanelAudio, r.artifact.URL)
		if r.artifact.Path != "" {
			sess.AudioFiles = append(sess.AudioFiles, r.artifact.Path)
		}
	}
	if firstErr != nil {
		artifact.Status = comic.StatusFailed
		artifact.Failure = firstErr.Error()
		cr.logger.Session().Error("Page audio generation failed",
			"sessionId", sessionID, "page", page, "error", firstErr.Error())
		return artifact, firstErr
	}
	artifact.Engine = engine
	artifact.Status = comic.StatusDone
	artifact.GeneratedAt = marker.StartTime
	cr.logger.Session().Info("Page audio generated",
		"sessionId", sessionID, "page", page, "panels", len(results), "engine", engine)
	return artifact, nil
}

// dominantGender returns the most frequent speaker gender among a
// panel's speech and thought elements, defaulting to female.
func dominantGender(panel *comic.Panel) string {
	counts := map[string]int{}
	for _, el := range panel.TextElements {
		if el.Type != "speech" && el.Type != "thought" {
			continue
		}
		g := strings.ToLower(el.SpeakerGender)
		if g == "male" || g == "female" {
			counts[g]++
		}
	}
	if counts["male"] > counts["female"] {
		return "male"
	}
	return "female"
}

// DeleteSession removes a session and releases its files: the uploaded
// PDF, the extracted page images, and the generated audio. Unknown ids
// are not an error, so deletion is idempotent.
func (cr *ComicReaderService) DeleteSession(id string) {
	sess := cr.store.Delete(id)
	if sess == nil {
		return
	}
	cr.monitor.RecordSessionDeleted()
	cr.ReleaseFiles(sess)
}

// ReleaseFiles removes the files backing a session. Also used by the
// cleanup worker when sweeping expired sessions.
func (cr *ComicReaderService) ReleaseFiles(sess *session.Session) {
	sess.Mu.Lock()
	filePath := sess.FilePath
	pages := append([]string(nil), sess.PageImages...)
	audio := append([]string(nil), sess.AudioFiles...)
	sessionID := sess.ID
	sess.Mu.Unlock()

	if filePath != "" {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			cr.logger.Session().Warn("Failed to remove upload",
				"sessionId", sessionID, "path", filePath, "error", err.Error())
		}
	}
	cr.extractor.CleanupPages(pages)
	for _, path := range audio {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			cr.logger.Session().Warn("Failed to remove audio artifact",
				"sessionId", sessionID, "path", path, "error", err.Error())
		}
	}
	cr.logger.Session().Info("Session files released", "sessionId", sessionID)
}
