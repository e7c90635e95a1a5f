// Package messaging provides the session-scoped status broadcaster
// behind the websocket stream. Preload workers publish page readiness
// snapshots; connected reader clients receive them as JSON frames.
package messaging

import (
	"encoding/json"
	"sync"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// StatusBroadcaster fans preload status updates out to the websocket
// clients subscribed to each session.
type StatusBroadcaster struct {
	sessions map[string][]chan []byte
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewStatusBroadcaster creates a broadcaster.
func NewStatusBroadcaster(logger *logging.ChanneledLogger) *StatusBroadcaster {
	return &StatusBroadcaster{
		sessions: make(map[string][]chan []byte),
		logger:   logger,
	}
}

// Subscribe registers a client for one session's updates. The returned
// channel is buffered; a slow client drops frames rather than blocking
// the preload workers.
func (b *StatusBroadcaster) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sessionID] = append(b.sessions[sessionID], ch)
	b.logger.Session().Debug("Stream client subscribed", "sessionId", sessionID)
	return ch
}

// Unsubscribe removes a client channel and closes it.
func (b *StatusBroadcaster) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clients := b.sessions[sessionID]
	for i, client := range clients {
		if client == ch {
			b.sessions[sessionID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.sessions[sessionID]) == 0 {
		delete(b.sessions, sessionID)
	}
	b.logger.Session().Debug("Stream client unsubscribed", "sessionId", sessionID)
}

// Publish sends a payload to every client of one session.
func (b *StatusBroadcaster) Publish(sessionID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Session().Error("Failed to marshal stream payload",
			"sessionId", sessionID, "error", err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.sessions[sessionID] {
		select {
		case ch <- data:
		default:
			// Client buffer full; drop the frame.
		}
	}
}

// ConnectionCount reports how many clients watch a session.
func (b *StatusBroadcaster) ConnectionCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

// CloseSession drops every client of a deleted session.
func (b *StatusBroadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.sessions[sessionID] {
		close(ch)
	}
	delete(b.sessions, sessionID)
}
