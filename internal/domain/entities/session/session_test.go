package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
)

func newTestSession(pages int) *Session {
	images := make([]string, pages)
	for i := range images {
		images[i] = "temp/comic/page_000.png"
	}
	return New("01TEST", "comic.pdf", "uploads/01TEST.pdf", "en-US", images)
}

func analyzed(panels int) *comic.PageAnalysis {
	analysis := comic.NewPageAnalysis(0)
	analysis.Panels = make([]comic.Panel, panels)
	analysis.Status = comic.StatusDone
	return analysis
}

func TestNewSessionDefaults(t *testing.T) {
	sess := newTestSession(3)

	assert.Equal(t, 3, sess.TotalPages)
	assert.Equal(t, 0, sess.CurrentPage)
	assert.Equal(t, 0, sess.CurrentPanel)
	assert.NotNil(t, sess.Analyses)
	assert.NotNil(t, sess.Audio)
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		panels    int
		startPage int
		startPan  int
		action    string
		wantPage  int
		wantPan   int
	}{
		{"next panel within page", 3, 4, 0, 0, ActionNextPanel, 0, 1},
		{"next panel crosses page boundary", 3, 2, 0, 1, ActionNextPanel, 1, 0},
		{"next panel clamps at end", 1, 1, 0, 0, ActionNextPanel, 0, 0},
		{"prev panel within page", 3, 4, 0, 2, ActionPrevPanel, 0, 1},
		{"prev panel crosses page boundary", 3, 2, 1, 0, ActionPrevPanel, 0, 0},
		{"prev panel clamps at start", 3, 2, 0, 0, ActionPrevPanel, 0, 0},
		{"next page resets panel", 3, 4, 0, 2, ActionNextPage, 1, 0},
		{"next page clamps at end", 3, 4, 2, 1, ActionNextPage, 2, 0},
		{"prev page resets panel", 3, 4, 2, 3, ActionPrevPage, 1, 0},
		{"prev page clamps at start", 3, 4, 0, 2, ActionPrevPage, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession(tt.pages)
			sess.CurrentPage = tt.startPage
			sess.CurrentPanel = tt.startPan
			analysis := analyzed(tt.panels)
			analysis.PageNumber = tt.startPage
			sess.Analyses[tt.startPage] = analysis

			page, panel := sess.Navigate(tt.action)

			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPan, panel)
		})
	}
}

func TestNavigateUnanalyzedPageTreatsPanelsAsZero(t *testing.T) {
	sess := newTestSession(2)

	// No analysis for page 0, so next_panel should advance the page.
	page, panel := sess.Navigate(ActionNextPanel)

	assert.Equal(t, 1, page)
	assert.Equal(t, 0, panel)
}

func TestPanelCountIgnoresIncompleteAnalysis(t *testing.T) {
	sess := newTestSession(1)
	analysis := analyzed(5)
	analysis.Status = comic.StatusInProgress
	sess.Analyses[0] = analysis

	assert.Equal(t, 0, sess.PanelCount())
}

func TestPageImage(t *testing.T) {
	sess := newTestSession(2)

	assert.NotEmpty(t, sess.PageImage(0))
	assert.Empty(t, sess.PageImage(-1))
	assert.Empty(t, sess.PageImage(2))
}

func TestTouchAndIdleSince(t *testing.T) {
	sess := newTestSession(1)
	sess.LastAccessed = time.Now().UTC().Add(-time.Hour)

	require.GreaterOrEqual(t, sess.IdleSince(time.Now().UTC()), 59*time.Minute)

	sess.Touch()
	assert.Less(t, sess.IdleSince(time.Now().UTC()), time.Minute)
}

func TestValidAction(t *testing.T) {
	assert.True(t, ValidAction(ActionNextPanel))
	assert.True(t, ValidAction(ActionPrevPage))
	assert.False(t, ValidAction("jump_to_end"))
	assert.False(t, ValidAction(""))
}
