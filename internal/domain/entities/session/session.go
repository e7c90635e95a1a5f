// Package session provides domain entities for reading sessions.
// A session tracks one uploaded comic and one reading user: the
// uploaded file, extracted page images, per-page analyses and audio,
// and the user's navigation position.
package session

import (
	"sync"
	"time"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
)

// Navigation actions accepted by Session.Navigate.
const (
	ActionNextPanel = "next_panel"
	ActionPrevPanel = "prev_panel"
	ActionNextPage  = "next_page"
	ActionPrevPage  = "prev_page"
)

// Session is the server-side state for one uploaded comic.
// All fields are guarded by Mu; callers outside this package must
// hold the lock for any read or write of mutable state.
type Session struct {
	Mu sync.RWMutex `json:"-"`

	ID           string    `json:"session_id"`
	Filename     string    `json:"filename"`
	FilePath     string    `json:"-"`
	PageImages   []string  `json:"-"`
	TotalPages   int       `json:"total_pages"`
	Language     string    `json:"language"`
	CurrentPage  int       `json:"current_page"`
	CurrentPanel int       `json:"current_panel"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`

	Analyses map[int]*comic.PageAnalysis  `json:"-"`
	Audio    map[int]*comic.AudioArtifact `json:"-"`

	// AudioFiles lists every audio artifact generated for this session,
	// as disk paths, so deletion can remove them with the upload and
	// page images.
	AudioFiles []string `json:"-"`
}

// New creates a session for an uploaded comic.
func New(id, filename, filePath, language string, pageImages []string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		Filename:     filename,
		FilePath:     filePath,
		PageImages:   pageImages,
		TotalPages:   len(pageImages),
		Language:     language,
		CreatedAt:    now,
		LastAccessed: now,
		Analyses:     make(map[int]*comic.PageAnalysis),
		Audio:        make(map[int]*comic.AudioArtifact),
	}
}

// Touch updates the last-access time. Caller must hold Mu.
func (s *Session) Touch() {
	s.LastAccessed = time.Now().UTC()
}

// IdleSince reports how long the session has been unused. Caller must hold Mu.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastAccessed)
}

// PageImage returns the image path for a page, or "" when out of range.
// Caller must hold Mu.
func (s *Session) PageImage(page int) string {
	if page < 0 || page >= len(s.PageImages) {
		return ""
	}
	return s.PageImages[page]
}

// PanelCount returns the panel count of the current page's analysis,
// or zero when the page has not been analyzed. Caller must hold Mu.
func (s *Session) PanelCount() int {
	analysis, ok := s.Analyses[s.CurrentPage]
	if !ok || analysis.Status != comic.StatusDone {
		return 0
	}
	return len(analysis.Panels)
}

// Navigate applies a navigation action and returns the new position.
// Moving across a page boundary resets the panel index. Caller must hold Mu.
func (s *Session) Navigate(action string) (page, panel int) {
	switch action {
	case ActionNextPanel:
		if s.CurrentPanel < s.PanelCount()-1 {
			s.CurrentPanel++
		} else if s.CurrentPage < s.TotalPages-1 {
			s.CurrentPage++
			s.CurrentPanel = 0
		}
	case ActionPrevPanel:
		if s.CurrentPanel > 0 {
			s.CurrentPanel--
		} else if s.CurrentPage > 0 {
			s.CurrentPage--
			s.CurrentPanel = 0
		}
	case ActionNextPage:
		if s.CurrentPage < s.TotalPages-1 {
			s.CurrentPage++
			s.CurrentPanel = 0
		}
	case ActionPrevPage:
		if s.CurrentPage > 0 {
			s.CurrentPage--
			s.CurrentPanel = 0
		}
	}
	return s.CurrentPage, s.CurrentPanel
}

// ValidAction reports whether action is a recognized navigation action.
func ValidAction(action string) bool {
	switch action {
	case ActionNextPanel, ActionPrevPanel, ActionNextPage, ActionPrevPage:
		return true
	}
	return false
}
