package model

import "time"

// Signal is a mono sample buffer at a fixed sample rate
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples
func (s *Signal) Len() int { return len(s.Samples) }

// Duration returns the playback length of the signal
func (s *Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of the signal
func (s *Signal) Clone() *Signal {
	samples := make([]float64, len(s.Samples))
	copy(samples, s.Samples)
	return &Signal{Samples: samples, SampleRate: s.SampleRate}
}

// FilterSpec describes a band-pass filter request
type FilterSpec struct {
	LowHz  float64
	HighHz float64
	Order  int
}

// DefaultFilterOrder is the Butterworth order used when a FilterSpec leaves it unset
const DefaultFilterOrder = 8

// TransientEvent is a detected plosive-like burst on the analysis frame grid
type TransientEvent struct {
	Frame int
	Score float64
}

// SampleIndex converts the event frame to a sample position for the given hop
func (e TransientEvent) SampleIndex(hop int) int { return e.Frame * hop }

// AudioMetadata holds metadata of an audio file
type AudioMetadata struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    int
	Codec      string
	Format     string
	Size       int64
}

// EnhancementOptions holds all configuration for one enhancement run
type EnhancementOptions struct {
	// Speech band
	LowCutoffHz  float64 // Hz, default: 50
	HighCutoffHz float64 // Hz, default: 14000 (clamped below Nyquist)
	FilterOrder  int     // default: 8

	// Plosive enhancement
	EnhancementFactor    float64 // default: 1.2
	PercentileThreshold  float64 // default: 96
	MinEventSeparationMs float64 // default: 80

	// Timing
	LeadAdvanceSeconds float64 // default: 0.02

	// Output
	ClipCeiling float64 // peak ceiling, default: 0.95
	Visualize   bool

	// Processing
	Timeout time.Duration
	Workers int
}

// DefaultEnhancementOptions returns a fresh set of defaults; callers own the copy
func DefaultEnhancementOptions() *EnhancementOptions {
	return &EnhancementOptions{
		LowCutoffHz:          50,
		HighCutoffHz:         14000,
		FilterOrder:          DefaultFilterOrder,
		EnhancementFactor:    1.2,
		PercentileThreshold:  96,
		MinEventSeparationMs: 80,
		LeadAdvanceSeconds:   0.02,
		ClipCeiling:          0.95,
		Visualize:            false,
		Timeout:              5 * time.Minute,
		Workers:              4,
	}
}

// Bandpass returns the speech band filter described by the options
func (o *EnhancementOptions) Bandpass() FilterSpec {
	return FilterSpec{LowHz: o.LowCutoffHz, HighHz: o.HighCutoffHz, Order: o.FilterOrder}
}

// ProcessingResult holds the result of an enhancement run
type ProcessingResult struct {
	InputPath       string
	OutputPath      string
	OutputSize      int64  // bytes written to OutputPath, 0 if unknown
	SpectrogramPath string // empty unless a visualization was written
	InputMeta       *AudioMetadata

	// Effective speech band after any Nyquist clamp
	Band        FilterSpec
	BandClamped bool

	Events             []TransientEvent
	Onsets             int
	ShiftSamples       int // leading samples dropped by the timing advance, 0 if none
	NormalizationScale float64

	Duration    time.Duration
	ProcessedAt time.Time
}

// BatchJob represents a batch enhancement job
type BatchJob struct {
	ID         string
	InputPath  string
	OutputPath string
	Options    *EnhancementOptions
}

// BatchResult holds results of a batch operation
type BatchResult struct {
	JobID  string
	Result *ProcessingResult
	Err    error
}

// SpectrogramRequest asks a visualizer for an original vs processed comparison
type SpectrogramRequest struct {
	Original   *Signal
	Processed  *Signal
	LowHz      float64
	HighHz     float64
	OutputPath string
}
