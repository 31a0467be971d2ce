// Package perf collects latency metrics and grades them against targets.
//
// GRADING:
//
//	value <= target        → GOOD
//	value <= 1.5 × target  → NEEDS IMPROVEMENT
//	otherwise              → POOR
//
// The API client feeds one sample per request (time to first response byte);
// the CLI prints a summary on exit when run with --metrics.
package perf

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Rating is the grade given to one sample.
type Rating string

const (
	Good             Rating = "GOOD"
	NeedsImprovement Rating = "NEEDS IMPROVEMENT"
	Poor             Rating = "POOR"
)

// DefaultResponseTarget mirrors the usual TTFB budget.
const DefaultResponseTarget = 600 * time.Millisecond

// Grade classifies value against target.
func Grade(value, target time.Duration) Rating {
	switch {
	case value <= target:
		return Good
	case float64(value) <= float64(target)*1.5:
		return NeedsImprovement
	default:
		return Poor
	}
}

// Monitor keeps the latest sample per metric name. Safe for concurrent use:
// bulk imports record from several goroutines at once.
type Monitor struct {
	mu      sync.Mutex
	metrics map[string]time.Duration
	logger  *slog.Logger
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{
		metrics: make(map[string]time.Duration),
		logger:  logger,
	}
}

// Record stores value under name, logs it with its grade and returns the grade.
func (m *Monitor) Record(name string, value, target time.Duration) Rating {
	m.mu.Lock()
	m.metrics[name] = value
	m.mu.Unlock()

	grade := Grade(value, target)
	level := slog.LevelDebug
	if grade == Poor {
		level = slog.LevelWarn
	}
	m.logger.Log(context.Background(), level, "metric",
		slog.String("name", name),
		slog.Duration("value", value),
		slog.Duration("target", target),
		slog.String("grade", string(grade)),
	)
	return grade
}

// Metrics returns a copy of every collected sample.
func (m *Monitor) Metrics() map[string]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]time.Duration, len(m.metrics))
	for k, v := range m.metrics {
		out[k] = v
	}
	return out
}

// LogSummary writes every metric at Info, sorted by name. Does nothing when
// no sample was recorded.
func (m *Monitor) LogSummary() {
	metrics := m.Metrics()
	if len(metrics) == 0 {
		return
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m.logger.Info("performance summary",
			slog.String("name", name),
			slog.Duration("value", metrics[name]),
		)
	}
}
