// Package performance provides performance tracking and monitoring
// capabilities for VoxPanel operations with real-time alerting.
package performance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers    map[string]*Marker
	alerts     []*Alert
	thresholds *AlertThresholds
	mu         sync.RWMutex
	started    time.Time
	config     *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers   int  `json:"maxMarkers"`   // Maximum number of markers to retain
	MaxAlerts    int  `json:"maxAlerts"`    // Maximum number of alerts to retain
	EnableAlerts bool `json:"enableAlerts"` // Whether to generate performance alerts
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:   10000,
		MaxAlerts:    500,
		EnableAlerts: true,
	}
}

// AlertSeverity classifies performance alerts
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert records one threshold violation
type Alert struct {
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	SessionID string        `json:"sessionId"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// AlertThresholds defines performance thresholds for generating alerts
type AlertThresholds struct {
	SlowResponseThreshold     time.Duration `json:"slowResponseThreshold"`     // 2s
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"` // 30s

	// Vendor calls dominate latency; they get their own, looser threshold.
	VendorCallThreshold time.Duration `json:"vendorCallThreshold"` // 45s
	PDFExtractThreshold time.Duration `json:"pdfExtractThreshold"` // 20s
}

// DefaultAlertThresholds returns sensible default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		SlowResponseThreshold:     2 * time.Second,
		CriticalResponseThreshold: 30 * time.Second,
		VendorCallThreshold:       45 * time.Second,
		PDFExtractThreshold:       20 * time.Second,
	}
}

// NewTracker creates a performance tracker
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers:    make(map[string]*Marker),
		alerts:     make([]*Alert, 0),
		thresholds: DefaultAlertThresholds(),
		started:    time.Now(),
		config:     config,
	}
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation, sessionID string) *Marker {
	marker := &Marker{
		Operation: operation,
		SessionID: sessionID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%s_%d", sessionID, operation, time.Now().UnixNano())

	t.mu.Lock()
	if len(t.markers) < t.config.MaxMarkers {
		t.markers[markerID] = marker
	}
	t.mu.Unlock()

	return marker
}

// StartOperationWithContext creates a performance marker with context cancellation support
func (t *Tracker) StartOperationWithContext(ctx context.Context, operation, sessionID string) *Marker {
	marker := t.StartOperation(operation, sessionID)

	go func() {
		<-ctx.Done()
		if !marker.Completed {
			marker.SetError(ctx.Err())
			marker.Complete()
		}
	}()

	return marker
}

// CompleteOperation manually completes an operation and checks for alerts
func (t *Tracker) CompleteOperation(marker *Marker) {
	if marker == nil || marker.Completed {
		return
	}

	marker.Complete()

	if t.config.EnableAlerts {
		t.checkForAlerts(marker)
	}
}

// checkForAlerts evaluates a completed marker against alert thresholds
func (t *Tracker) checkForAlerts(marker *Marker) {
	alerts := t.evaluateThresholds(marker)
	if len(alerts) == 0 {
		return
	}

	t.mu.Lock()
	t.alerts = append(t.alerts, alerts...)
	if len(t.alerts) > t.config.MaxAlerts {
		t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
	}
	t.mu.Unlock()
}

// evaluateThresholds checks a marker against all relevant thresholds
func (t *Tracker) evaluateThresholds(marker *Marker) []*Alert {
	var alerts []*Alert

	switch {
	case strings.Contains(marker.Operation, "vendor"):
		if marker.Duration > t.thresholds.VendorCallThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Vendor call exceeded threshold"))
		}
	case strings.Contains(marker.Operation, "pdf"):
		if marker.Duration > t.thresholds.PDFExtractThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"PDF extraction exceeded threshold"))
		}
	default:
		if marker.Duration > t.thresholds.CriticalResponseThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertCritical,
				"Operation exceeded critical response time threshold"))
		} else if marker.Duration > t.thresholds.SlowResponseThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Operation exceeded slow response time threshold"))
		}
	}

	return alerts
}

// createAlert builds an alert record from a marker
func (t *Tracker) createAlert(marker *Marker, severity AlertSeverity, message string) *Alert {
	return &Alert{
		Severity:  severity,
		Operation: marker.Operation,
		SessionID: marker.SessionID,
		Message:   message,
		Duration:  marker.Duration,
		Timestamp: time.Now().UTC(),
	}
}

// RecentAlerts returns up to limit of the most recent alerts
func (t *Tracker) RecentAlerts(limit int) []*Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || limit > len(t.alerts) {
		limit = len(t.alerts)
	}

	out := make([]*Alert, limit)
	copy(out, t.alerts[len(t.alerts)-limit:])
	return out
}

// Uptime reports how long the tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}
