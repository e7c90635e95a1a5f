package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/messaging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

// StreamHandlers serves the websocket status stream
type StreamHandlers struct {
	broadcaster *messaging.StatusBroadcaster
	upgrader    websocket.Upgrader
	logger      *logging.ChanneledLogger
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(broadcaster *messaging.StatusBroadcaster, logger *logging.ChanneledLogger) *StreamHandlers {
	return &StreamHandlers{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The reader page is same-origin; CORS guards the API surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// GetStream upgrades the connection and pushes preload status frames
// for the session until the client disconnects.
func (h *StreamHandlers) GetStream(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Session().Warn("Websocket upgrade failed",
			"sessionId", sess.ID, "error", err.Error())
		return
	}
	defer conn.Close()

	updates := h.broadcaster.Subscribe(sess.ID)
	defer h.broadcaster.Unsubscribe(sess.ID, updates)

	// Reader goroutine: detect client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case frame, open := <-updates:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
