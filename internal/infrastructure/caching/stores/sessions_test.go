package stores

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
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

func newStoredSession(ss *SessionStore) *session.Session {
	sess := session.New(ss.NewID(), "comic.pdf", "uploads/x.pdf", "en-US", []string{"p0.png", "p1.png"})
	ss.Put(sess)
	return sess
}

func TestNewIDIsUnique(t *testing.T) {
	ss := NewSessionStore(time.Hour, testLogger(t))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := ss.NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestPutAndGet(t *testing.T) {
	ss := NewSessionStore(time.Hour, testLogger(t))
	sess := newStoredSession(ss)

	got, err := ss.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, ss.Count())
}

func TestGetUnknownIDFails(t *testing.T) {
	ss := NewSessionStore(time.Hour, testLogger(t))

	_, err := ss.Get("01UNKNOWN")
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
}

func TestGetExpiredSessionFails(t *testing.T) {
	ss := NewSessionStore(time.Minute, testLogger(t))
	sess := newStoredSession(ss)

	sess.Mu.Lock()
	sess.LastAccessed = time.Now().UTC().Add(-2 * time.Minute)
	sess.Mu.Unlock()

	_, err := ss.Get(sess.ID)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
}

func TestZeroTTLDisablesExpiry(t *testing.T) {
	ss := NewSessionStore(0, testLogger(t))
	sess := newStoredSession(ss)

	sess.Mu.Lock()
	sess.LastAccessed = time.Now().UTC().Add(-24 * time.Hour)
	sess.Mu.Unlock()

	_, err := ss.Get(sess.ID)
	assert.NoError(t, err)
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	ss := NewSessionStore(time.Minute, testLogger(t))
	sess := newStoredSession(ss)

	sess.Mu.Lock()
	sess.LastAccessed = time.Now().UTC().Add(-50 * time.Second)
	sess.Mu.Unlock()

	require.NoError(t, ss.Touch(sess.ID))

	sess.Mu.RLock()
	idle := sess.IdleSince(time.Now().UTC())
	sess.Mu.RUnlock()
	assert.Less(t, idle, time.Second)
}

func TestDeleteReturnsSessionOnceAndMakesGetFail(t *testing.T) {
	ss := NewSessionStore(time.Hour, testLogger(t))
	sess := newStoredSession(ss)

	removed := ss.Delete(sess.ID)
	require.Same(t, sess, removed)

	_, err := ss.Get(sess.ID)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
	assert.Equal(t, 0, ss.Count())

	// Idempotent: a second delete finds nothing.
	assert.Nil(t, ss.Delete(sess.ID))
}

func TestExpiredListsOnlyIdleSessions(t *testing.T) {
	ss := NewSessionStore(time.Minute, testLogger(t))
	fresh := newStoredSession(ss)
	stale := newStoredSession(ss)

	stale.Mu.Lock()
	stale.LastAccessed = time.Now().UTC().Add(-time.Hour)
	stale.Mu.Unlock()

	expired := ss.Expired(time.Now().UTC())
	require.Len(t, expired, 1)
	assert.Same(t, stale, expired[0])
	assert.NotSame(t, fresh, expired[0])
}
