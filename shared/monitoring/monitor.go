package monitoring

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// StageStatus is the last known outcome of one pipeline stage.
type StageStatus struct {
	Stage    string    `json:"stage"`
	Success  bool      `json:"success"`
	LastRun  time.Time `json:"lastRun"`
	Summary  string    `json:"summary"`
	Duration string    `json:"duration"`
}

type Monitor struct {
	mu     sync.RWMutex
	stages map[string]StageStatus
}

func NewMonitor() *Monitor {
	return &Monitor{stages: make(map[string]StageStatus)}
}

func (m *Monitor) RecordSuccess(stage, summary string, duration time.Duration) {
	m.record(StageStatus{Stage: stage, Success: true, Summary: summary, Duration: duration.String()})

	log.Printf("✅ %s completed - %s (took %v)", stage, summary, duration)
}

// RecordPartialFailure logs per-item failures without changing health.
func (m *Monitor) RecordPartialFailure(stage string, err error, duration time.Duration) {
	log.Printf("⚠️  %s PARTIAL FAILURE: %s (Duration: %v)", stage, err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(stage string, err error, duration time.Duration) {
	m.record(StageStatus{Stage: stage, Success: false, Summary: err.Error(), Duration: duration.String()})

	log.Printf("🚨 %s CRITICAL FAILURE: %s (Duration: %v)", stage, err.Error(), duration)
}

func (m *Monitor) record(status StageStatus) {
	status.LastRun = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[status.Stage] = status
}

// IsHealthy is true until some stage's most recent run failed critically.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stages {
		if !s.Success {
			return false
		}
	}
	return true
}

// Stages returns the recorded statuses ordered by stage name.
func (m *Monitor) Stages() []StageStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StageStatus, 0, len(m.stages))
	for _, s := range m.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

func (m *Monitor) GetStatusSummary() string {
	stages := m.Stages()
	if len(stages) == 0 {
		return "No runs yet"
	}

	summary := ""
	for i, s := range stages {
		if i > 0 {
			summary += "; "
		}
		if s.Success {
			summary += fmt.Sprintf("✅ %s: %s", s.Stage, s.LastRun.Format("Jan 2 15:04"))
		} else {
			summary += fmt.Sprintf("❌ %s failed: %s", s.Stage, s.LastRun.Format("Jan 2 15:04"))
		}
	}
	return summary
}
