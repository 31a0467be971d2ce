package perf

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	target := 100 * time.Millisecond

	tests := []struct {
		value time.Duration
		want  Rating
	}{
		{50 * time.Millisecond, Good},
		{100 * time.Millisecond, Good},
		{150 * time.Millisecond, NeedsImprovement},
		{151 * time.Millisecond, Poor},
	}

	for _, tt := range tests {
		t.Run(tt.value.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.value, target))
		})
	}
}

func TestMonitor_RecordAndSnapshot(t *testing.T) {
	var buf bytes.Buffer
	m := NewMonitor(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	m.Record("GET /projects", 20*time.Millisecond, DefaultResponseTarget)
	m.Record("GET /projects", 30*time.Millisecond, DefaultResponseTarget)

	snapshot := m.Metrics()
	assert.Equal(t, 30*time.Millisecond, snapshot["GET /projects"], "latest sample wins")

	// Mutating the snapshot must not touch the monitor.
	snapshot["GET /projects"] = 0
	assert.Equal(t, 30*time.Millisecond, m.Metrics()["GET /projects"])

	m.LogSummary()
	assert.True(t, strings.Contains(buf.String(), "performance summary"))
}

func TestMonitor_ConcurrentRecord(t *testing.T) {
	m := NewMonitor(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record("POST /projects", time.Millisecond, DefaultResponseTarget)
		}()
	}
	wg.Wait()

	assert.Len(t, m.Metrics(), 1)
}
