// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
)

const sessionContextKey = "voxpanel_session"

// SessionMiddleware resolves the :session_id route parameter into a live
// session and aborts with 404 when the id is unknown or expired. Routes
// behind it can rely on GetSession returning a valid session.
func SessionMiddleware(reader *services.ComicReaderService, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("session_id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session id"})
			return
		}

		marker := perfTracker.StartOperation("resolve_session", id)
		sess, err := reader.Session(id)
		marker.Complete()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// GetSession retrieves the resolved session from the gin context.
func GetSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	return sess, ok
}
