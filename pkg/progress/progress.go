package progress

import (
	"sync"
	"time"
)

// Stage represents a pipeline stage
type Stage string

const (
	// Audio enhancement
	StageLoad      Stage = "load"
	StageBandpass  Stage = "bandpass"
	StagePlosives  Stage = "plosives"
	StageAlign     Stage = "align"
	StageNormalize Stage = "normalize"
	StageWrite     Stage = "write"
	StageVisualize Stage = "visualize"

	// Video generation
	StageAnimate     Stage = "animate"
	StageLipSync     Stage = "lipsync"
	StagePostProcess Stage = "postprocess"

	StageDone Stage = "done"
)

// Update holds a progress update
type Update struct {
	JobID     string
	Stage     Stage
	Percent   float64
	Message   string
	Timestamp time.Time
}

// Reporter is the interface for progress reporting
type Reporter interface {
	Report(update Update)
}

// ChannelReporter sends updates to a channel
type ChannelReporter struct {
	ch chan<- Update
}

// NewChannelReporter creates a reporter that sends updates to ch
func NewChannelReporter(ch chan<- Update) *ChannelReporter {
	return &ChannelReporter{ch: ch}
}

func (r *ChannelReporter) Report(update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}
	select {
	case r.ch <- update:
	default: // non-blocking: drop if channel is full
	}
}

// FuncReporter adapts a plain function to Reporter
type FuncReporter func(Update)

func (f FuncReporter) Report(update Update) { f(update) }

// MultiReporter fans out to multiple reporters
type MultiReporter struct {
	mu        sync.RWMutex
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

func (m *MultiReporter) Add(r Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporters = append(m.reporters, r)
}

func (m *MultiReporter) Report(update Update) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reporters {
		r.Report(update)
	}
}

// NoopReporter discards all updates
type NoopReporter struct{}

func (n NoopReporter) Report(_ Update) {}
