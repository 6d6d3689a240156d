// Package performance provides operation timing markers and aggregated
// statistics for editor sessions.
package performance

import "time"

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation string         `json:"operation"`       // e.g., "session:open", "ai:generate"
	SessionID string         `json:"sessionId"`       // Editor session, empty for global operations
	StartTime time.Time      `json:"startTime"`       // When the operation started
	EndTime   time.Time      `json:"endTime"`         // When the operation completed
	Duration  time.Duration  `json:"duration"`        // Total operation duration
	Success   bool           `json:"success"`         // Whether the operation completed successfully
	Error     string         `json:"error,omitempty"` // Error message if operation failed
	Metadata  map[string]any `json:"metadata"`        // Additional operation-specific data
	Completed bool           `json:"completed"`       // Whether Complete() has been called
}

// Complete marks the operation as finished and calculates final metrics
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// OperationStats aggregates the completed markers of one operation.
type OperationStats struct {
	Operation    string        `json:"operation"`
	Count        int           `json:"count"`
	Errors       int           `json:"errors"`
	SlowCount    int           `json:"slowCount"`
	TotalTime    time.Duration `json:"totalTime"`
	AverageTime  time.Duration `json:"averageTime"`
	MaxTime      time.Duration `json:"maxTime"`
	LastDuration time.Duration `json:"lastDuration"`
}

// PerformanceAlert records an operation that exceeded the slow threshold.
type PerformanceAlert struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"`
	SessionID string        `json:"sessionId,omitempty"`
	Threshold time.Duration `json:"threshold"`
	Actual    time.Duration `json:"actual"`
}
