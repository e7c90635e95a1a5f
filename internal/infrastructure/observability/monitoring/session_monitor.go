// Package monitoring provides runtime health tracking for the session
// store and the preload pipeline.
package monitoring

import (
	"sync"
	"time"
)

// StageMetrics tracks outcomes for one preload stage.
type StageMetrics struct {
	Completed int64         `json:"completed"`
	Failed    int64         `json:"failed"`
	Retried   int64         `json:"retried"`
	TotalTime time.Duration `json:"totalTime"`
}

// SessionMonitor aggregates counters the health endpoint reports.
// All methods are safe for concurrent use.
type SessionMonitor struct {
	mu sync.RWMutex

	sessionsCreated int64
	sessionsDeleted int64
	sessionsExpired int64
	uploadsRejected int64

	stages  map[string]*StageMetrics
	started time.Time
}

// NewSessionMonitor creates a monitor.
func NewSessionMonitor() *SessionMonitor {
	return &SessionMonitor{
		stages:  make(map[string]*StageMetrics),
		started: time.Now().UTC(),
	}
}

// RecordSessionCreated increments the created counter.
func (m *SessionMonitor) RecordSessionCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCreated++
}

// RecordSessionDeleted increments the deleted counter.
func (m *SessionMonitor) RecordSessionDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsDeleted++
}

// RecordSessionExpired increments the idle-expiry counter.
func (m *SessionMonitor) RecordSessionExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsExpired++
}

// RecordUploadRejected increments the validation-rejection counter.
func (m *SessionMonitor) RecordUploadRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsRejected++
}

// RecordStage records one preload stage outcome.
func (m *SessionMonitor) RecordStage(stage string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stages[stage]
	if s == nil {
		s = &StageMetrics{}
		m.stages[stage] = s
	}
	if failed {
		s.Failed++
	} else {
		s.Completed++
	}
	s.TotalTime += duration
}

// RecordRetry records one retried stage attempt.
func (m *SessionMonitor) RecordRetry(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stages[stage]
	if s == nil {
		s = &StageMetrics{}
		m.stages[stage] = s
	}
	s.Retried++
}

// Snapshot is the health endpoint payload.
type Snapshot struct {
	Uptime          string                   `json:"uptime"`
	SessionsCreated int64                    `json:"sessionsCreated"`
	SessionsDeleted int64                    `json:"sessionsDeleted"`
	SessionsExpired int64                    `json:"sessionsExpired"`
	UploadsRejected int64                    `json:"uploadsRejected"`
	Stages          map[string]*StageMetrics `json:"stages"`
}

// Report returns a copy of the current counters.
func (m *SessionMonitor) Report() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stages := make(map[string]*StageMetrics, len(m.stages))
	for name, s := range m.stages {
		copied := *s
		stages[name] = &copied
	}
	return Snapshot{
		Uptime:          time.Since(m.started).Round(time.Second).String(),
		SessionsCreated: m.sessionsCreated,
		SessionsDeleted: m.sessionsDeleted,
		SessionsExpired: m.sessionsExpired,
		UploadsRejected: m.uploadsRejected,
		Stages:          stages,
	}
}
