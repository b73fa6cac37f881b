// Package notice carries user-visible failure and success signals from the
// stores to whatever presentation layer is listening.
package notice

import (
	"sync"
	"time"

	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"go.uber.org/zap"
)

type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

type Notice struct {
	Action   string    `json:"action"`
	EntityID string    `json:"entityId,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Level    Level     `json:"level"`
	At       time.Time `json:"at"`
}

type Sink interface {
	Notify(n Notice)
}

type SinkFunc func(n Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

// Recorder keeps the most recent notices in a bounded ring.
type Recorder struct {
	mu    sync.Mutex
	items []Notice
	limit int
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// Recent returns up to the last n notices, oldest first.
func (r *Recorder) Recent(n int) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.items) {
		n = len(r.items)
	}
	out := make([]Notice, n)
	copy(out, r.items[len(r.items)-n:])
	return out
}

type logSink struct {
	logger logger.ZapLogger
}

func NewLogSink(log logger.ZapLogger) Sink {
	return &logSink{logger: log}
}

func (s *logSink) Notify(n Notice) {
	s.logger.Info("notice",
		zap.String("action", n.Action),
		zap.String("entity_id", n.EntityID),
		zap.String("detail", n.Detail),
		zap.String("level", string(n.Level)),
	)
}

// Multi fans a notice out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(n Notice) {
		for _, s := range sinks {
			s.Notify(n)
		}
	})
}
