package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/stores"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/media"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/messaging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/monitoring"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/pdf"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/speech"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/tasks"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.DefaultLevel = slog.LevelError
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

type stubVision struct{}

func (stubVision) AnalyzePage(ctx context.Context, imagePath string) ([]comic.Panel, string, error) {
	return []comic.Panel{{
		ReadingOrder: 1,
		TextElements: []comic.TextElement{{Type: "narration", Text: "A quiet rooftop"}},
	}}, "One quiet panel", nil
}

func (stubVision) Configured() bool { return true }

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, texts []string, targetLanguage string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = targetLanguage + ":" + text
	}
	return out, nil
}

func (stubTranslator) Configured() bool { return true }

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, req speech.Request) (speech.Artifact, error) {
	return speech.Artifact{URL: "/static/audio/clip.mp3", Engine: "murf"}, nil
}

// routerFixture wires the API routes the way SetupRoutes does, minus the
// HTML pages, against stub vendors.
type routerFixture struct {
	router *gin.Engine
	store  *stores.SessionStore
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := testLogger(t)
	store := stores.NewSessionStore(0, logger)
	monitor := monitoring.NewSessionMonitor()
	perf := performance.NewTracker(nil)
	voices := services.NewVoiceCatalogService(nil, logger)
	extractor := pdf.NewExtractor(t.TempDir(), media.NewImageProcessor(1200, 80), logger)
	reader := services.NewComicReaderService(
		store, extractor, stubVision{}, stubTranslator{}, stubSynth{}, voices,
		perf, monitor, logger, t.TempDir(), 50*1024*1024,
	)

	queue := tasks.NewQueue(1, 16, logger)
	preload := services.NewPreloadService(queue, reader, monitor, logger, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		queue.Stop()
	})
	broadcaster := messaging.NewStatusBroadcaster(logger)

	resolved := middleware.SessionMiddleware(reader, perf)
	uploadHandlers := NewUploadHandlers(reader, preload, logger, perf)
	analysisHandlers := NewAnalysisHandlers(reader, preload, logger, perf)
	sessionHandlers := NewSessionHandlers(reader, preload, broadcaster, logger)

	r := gin.New()
	r.POST("/upload", uploadHandlers.PostUpload)
	r.POST("/analyze-page/:session_id/:page_num", resolved, analysisHandlers.PostAnalyzePage)
	r.POST("/translate-panels/:session_id", resolved, analysisHandlers.PostTranslatePanels)
	group := r.Group("/session/:session_id")
	{
		group.GET("/status", resolved, sessionHandlers.GetStatus)
		group.GET("/preload-status/:page_num", resolved, sessionHandlers.GetPreloadStatus)
		group.POST("/navigate", resolved, sessionHandlers.PostNavigate)
	}
	r.DELETE("/session/:session_id", sessionHandlers.DeleteSession)

	return &routerFixture{router: r, store: store}
}

func (f *routerFixture) seedSession(t *testing.T, language string, pages int) *session.Session {
	t.Helper()
	images := make([]string, pages)
	for i := range images {
		images[i] = fmt.Sprintf("page_%d.png", i)
	}
	sess := session.New(f.store.NewID(), "comic.pdf", "", language, images)
	f.store.Put(sess)
	return sess
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, filename, language string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("language", language))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postForm(path, form string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUploadValidation(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name     string
		filename string
		language string
	}{
		{"non-pdf extension", "comic.txt", "en-US"},
		{"unsupported language", "comic.pdf", "xx-XX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.filename, tt.language)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := f.do(req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}

	t.Run("missing file field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=empty")
		w := f.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUnknownSessionResolvesNotFound(t *testing.T) {
	f := newRouterFixture(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/session/does-not-exist/status", nil),
		httptest.NewRequest(http.MethodGet, "/session/does-not-exist/preload-status/0", nil),
		httptest.NewRequest(http.MethodPost, "/analyze-page/does-not-exist/0", nil),
		postForm("/session/does-not-exist/navigate", "action=next_page"),
	} {
		w := f.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.Method, req.URL.Path)
	}
}

func TestNavigateUpdatesPosition(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.seedSession(t, "en-US", 3)

	w := f.do(postForm("/session/"+sess.ID+"/navigate", "action=next_page"))
	require.Equal(t, http.StatusOK, w.Code)
	var nav struct {
		CurrentPage  int    `json:"current_page"`
		CurrentPanel int    `json:"current_panel"`
		Action       string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nav))
	assert.Equal(t, 1, nav.CurrentPage)
	assert.Equal(t, 0, nav.CurrentPanel)
	assert.Equal(t, "next_page", nav.Action)

	w = f.do(postForm("/session/"+sess.ID+"/navigate", "action=sideways"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		CurrentPage int    `json:"current_page"`
		TotalPages  int    `json:"total_pages"`
		Filename    string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.CurrentPage)
	assert.Equal(t, 3, status.TotalPages)
	assert.Equal(t, "comic.pdf", status.Filename)
}

func TestPreloadStatusEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.seedSession(t, "en-US", 2)

	w := f.do(httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/preload-status/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status services.PreloadStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Page)
	assert.Equal(t, services.StatusSkipped, status.Translation, "base language needs no translation")

	w = f.do(httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/preload-status/nine", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/preload-status/9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzePageEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.seedSession(t, "en-US", 2)

	w := f.do(httptest.NewRequest(http.MethodPost, "/analyze-page/"+sess.ID+"/0", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var analysis comic.PageAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, comic.StatusDone, analysis.Status)
	require.Len(t, analysis.Panels, 1)
	assert.Equal(t, "A quiet rooftop", analysis.Panels[0].TextForSpeech)

	w = f.do(httptest.NewRequest(http.MethodPost, "/analyze-page/"+sess.ID+"/nine", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/analyze-page/"+sess.ID+"/9", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "out-of-range page is a validation error")
}

func TestTranslatePanelsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.seedSession(t, "en-US", 1)

	w := f.do(httptest.NewRequest(http.MethodPost, "/analyze-page/"+sess.ID+"/0", nil))
	require.Equal(t, http.StatusOK, w.Code)

	payload := strings.NewReader(`{"target_language":"fr-FR","page_num":0}`)
	req := httptest.NewRequest(http.MethodPost, "/translate-panels/"+sess.ID, payload)
	req.Header.Set("Content-Type", "application/json")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Page           int           `json:"page"`
		TargetLanguage string        `json:"target_language"`
		Panels         []comic.Panel `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Page)
	assert.Equal(t, "fr-FR", resp.TargetLanguage)
	require.Len(t, resp.Panels, 1)
	assert.Equal(t, "fr-FR:A quiet rooftop", resp.Panels[0].TextElements[0].TranslatedText)

	req = httptest.NewRequest(http.MethodPost, "/translate-panels/"+sess.ID, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code, "target_language is required")
}

func TestDeleteSessionEndpointIdempotent(t *testing.T) {
	f := newRouterFixture(t)
	sess := f.seedSession(t, "en-US", 1)

	w := f.do(httptest.NewRequest(http.MethodDelete, "/session/"+sess.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "deleted session is gone")

	w = f.do(httptest.NewRequest(http.MethodDelete, "/session/"+sess.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code, "deleting again is a no-op")
}
