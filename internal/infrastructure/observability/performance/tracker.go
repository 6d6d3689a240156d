package performance

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Tracker aggregates completed markers per operation.
type Tracker struct {
	stats   map[string]*OperationStats
	alerts  []PerformanceAlert
	active  int
	mu      sync.RWMutex
	started time.Time
	config  *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	SlowThreshold time.Duration `json:"slowThreshold"` // Operations slower than this raise an alert
	MaxAlerts     int           `json:"maxAlerts"`     // Maximum number of alerts to retain
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		SlowThreshold: 500 * time.Millisecond,
		MaxAlerts:     200,
	}
}

func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		stats:   make(map[string]*OperationStats),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates a new performance marker for an operation
func (t *Tracker) StartOperation(operation, sessionID string) *Marker {
	t.mu.Lock()
	t.active++
	t.mu.Unlock()
	return &Marker{
		Operation: operation,
		SessionID: sessionID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}
}

// CompleteOperation completes a marker and folds it into the statistics.
func (t *Tracker) CompleteOperation(marker *Marker) {
	if marker == nil || marker.Completed {
		return
	}
	marker.Complete()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.active--

	s, ok := t.stats[marker.Operation]
	if !ok {
		s = &OperationStats{Operation: marker.Operation}
		t.stats[marker.Operation] = s
	}
	s.Count++
	if !marker.Success {
		s.Errors++
	}
	s.TotalTime += marker.Duration
	s.AverageTime = s.TotalTime / time.Duration(s.Count)
	s.LastDuration = marker.Duration
	if marker.Duration > s.MaxTime {
		s.MaxTime = marker.Duration
	}
	if marker.Duration > t.config.SlowThreshold {
		s.SlowCount++
		t.alerts = append(t.alerts, PerformanceAlert{
			Timestamp: marker.EndTime,
			Operation: marker.Operation,
			SessionID: marker.SessionID,
			Threshold: t.config.SlowThreshold,
			Actual:    marker.Duration,
		})
		if len(t.alerts) > t.config.MaxAlerts {
			t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
		}
	}
}

// GetStats returns per-operation statistics sorted by operation name.
func (t *Tracker) GetStats() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]OperationStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

func (t *Tracker) GetAlerts() []PerformanceAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]PerformanceAlert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

// GetOverallStats returns overall tracker statistics
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	completed := 0
	for _, s := range t.stats {
		completed += s.Count
	}
	return map[string]any{
		"trackerUptime":       time.Since(t.started).String(),
		"activeOperations":    t.active,
		"completedOperations": completed,
		"totalAlerts":         len(t.alerts),
		"memoryUsageMB":       memStats.Alloc / (1024 * 1024),
		"systemMemoryMB":      memStats.Sys / (1024 * 1024),
		"goroutines":          runtime.NumGoroutine(),
	}
}
