package analytics

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// maxBufferSize bounds buffered events before a forced flush.
const maxBufferSize = 100

// Event captures one answered turn for offline analysis.
type Event struct {
	SessionID    string            `json:"sessionId"`
	Strategy     conv.StrategyName `json:"strategy"`
	FallbackUsed bool              `json:"fallbackUsed"`
	Language     string            `json:"language"`
	LatencyMS    int64             `json:"latencyMs"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Snapshot aggregates what the recorder has seen since process start.
type Snapshot struct {
	TotalTurns     int                       `json:"totalTurns"`
	FallbackTurns  int                       `json:"fallbackTurns"`
	StrategyCounts map[conv.StrategyName]int `json:"strategyCounts"`
	AvgLatencyMS   int64                     `json:"avgLatencyMs"`
}

// Recorder buffers per-turn events and flushes them to the log in batches.
// Recording never fails and never blocks answer generation.
type Recorder struct {
	logger *zap.Logger

	mu           sync.Mutex
	buffer       []Event
	totalTurns   int
	fallbacks    int
	strategies   map[conv.StrategyName]int
	totalLatency int64
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{
		logger:     logger.Named("analytics"),
		strategies: make(map[conv.StrategyName]int),
	}
}

// Record buffers one event, flushing when the buffer fills.
func (r *Recorder) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	r.buffer = append(r.buffer, event)
	r.totalTurns++
	if event.FallbackUsed {
		r.fallbacks++
	}
	r.strategies[event.Strategy]++
	r.totalLatency += event.LatencyMS
	full := len(r.buffer) >= maxBufferSize
	var toFlush []Event
	if full {
		toFlush = r.buffer
		r.buffer = nil
	}
	r.mu.Unlock()

	if full {
		r.flush(toFlush)
	}
}

// Flush drains whatever is buffered; called on shutdown.
func (r *Recorder) Flush() {
	r.mu.Lock()
	toFlush := r.buffer
	r.buffer = nil
	r.mu.Unlock()
	r.flush(toFlush)
}

func (r *Recorder) flush(events []Event) {
	if len(events) == 0 {
		return
	}
	for _, e := range events {
		r.logger.Info("turn",
			zap.String("sessionId", e.SessionID),
			zap.String("strategy", string(e.Strategy)),
			zap.Bool("fallbackUsed", e.FallbackUsed),
			zap.String("language", e.Language),
			zap.Int64("latencyMs", e.LatencyMS),
			zap.Time("at", e.Timestamp))
	}
}

// Stats returns the running aggregate.
func (r *Recorder) Stats() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[conv.StrategyName]int, len(r.strategies))
	for k, v := range r.strategies {
		counts[k] = v
	}

	var avg int64
	if r.totalTurns > 0 {
		avg = r.totalLatency / int64(r.totalTurns)
	}
	return Snapshot{
		TotalTurns:     r.totalTurns,
		FallbackTurns:  r.fallbacks,
		StrategyCounts: counts,
		AvgLatencyMS:   avg,
	}
}
