// Package stores provides the in-memory session store. Sessions do not
// survive a process restart; database-backed persistence is out of scope.
package stores

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// SessionStore is the process-wide mapping from session id to comic
// state. The store's lock guards the map; each session carries its own
// lock for its mutable state.
type SessionStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
	idleTTL  time.Duration
	logger   *logging.ChanneledLogger
}

// NewSessionStore creates a session store. Sessions idle longer than
// idleTTL are treated as expired; a zero idleTTL disables expiry.
func NewSessionStore(idleTTL time.Duration, logger *logging.ChanneledLogger) *SessionStore {
	if logger != nil {
		logger.Session().Info("Initializing session store", "idleTTL", idleTTL)
	}
	return &SessionStore{
		sessions: make(map[string]*session.Session),
		idleTTL:  idleTTL,
		logger:   logger,
	}
}

// NewID returns a fresh unique session identifier.
func (ss *SessionStore) NewID() string {
	return ulid.Make().String()
}

// Put registers a newly created session.
func (ss *SessionStore) Put(sess *session.Session) {
	ss.mu.Lock()
	ss.sessions[sess.ID] = sess
	count := len(ss.sessions)
	ss.mu.Unlock()

	if ss.logger != nil {
		ss.logger.Session().Info("Session created",
			"sessionId", sess.ID,
			"filename", sess.Filename,
			"totalPages", sess.TotalPages,
			"language", sess.Language,
			"activeSessions", count,
		)
	}
}

// Get retrieves a session by id. Absent and expired sessions both fail
// with ErrSessionNotFound; expired entries are left for the sweeper,
// which owns file cleanup.
func (ss *SessionStore) Get(id string) (*session.Session, error) {
	ss.mu.RLock()
	sess, exists := ss.sessions[id]
	ss.mu.RUnlock()

	if !exists {
		return nil, errs.ErrSessionNotFound
	}

	if ss.idleTTL > 0 {
		sess.Mu.RLock()
		expired := sess.IdleSince(time.Now().UTC()) > ss.idleTTL
		sess.Mu.RUnlock()
		if expired {
			return nil, errs.ErrSessionNotFound
		}
	}

	return sess, nil
}

// Touch updates a session's last-access time.
func (ss *SessionStore) Touch(id string) error {
	sess, err := ss.Get(id)
	if err != nil {
		return err
	}

	sess.Mu.Lock()
	sess.Touch()
	sess.Mu.Unlock()
	return nil
}

// Delete removes a session and returns it so the caller can release its
// files. Deleting an unknown id is not an error; in-flight preload tasks
// for the id are left to finish against the detached session.
func (ss *SessionStore) Delete(id string) *session.Session {
	ss.mu.Lock()
	sess, exists := ss.sessions[id]
	delete(ss.sessions, id)
	count := len(ss.sessions)
	ss.mu.Unlock()

	if !exists {
		return nil
	}

	if ss.logger != nil {
		ss.logger.Session().Info("Session deleted", "sessionId", id, "activeSessions", count)
	}
	return sess
}

// Expired returns the sessions idle longer than the TTL, for the sweep
// worker to remove.
func (ss *SessionStore) Expired(now time.Time) []*session.Session {
	if ss.idleTTL <= 0 {
		return nil
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var expired []*session.Session
	for _, sess := range ss.sessions {
		sess.Mu.RLock()
		if sess.IdleSince(now) > ss.idleTTL {
			expired = append(expired, sess)
		}
		sess.Mu.RUnlock()
	}
	return expired
}

// Count returns the number of live sessions.
func (ss *SessionStore) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
