package ports

import (
	"context"
	"time"

	"github.com/Skryldev/talkinghead/domain/model"
)

// AudioProcessor defines the driving-audio enhancement interface
type AudioProcessor interface {
	// ProcessAudio enhances a single audio file
	ProcessAudio(ctx context.Context, inputPath, outputPath string, opts ...Option) (*model.ProcessingResult, error)

	// ProcessBatch enhances multiple audio files concurrently
	ProcessBatch(ctx context.Context, jobs []model.BatchJob) (<-chan model.BatchResult, error)

	// ProbeAudio returns metadata about an audio file without processing
	ProbeAudio(ctx context.Context, inputPath string) (*model.AudioMetadata, error)
}

// SignalCodec decodes audio files to mono signals and writes them back
type SignalCodec interface {
	// Decode loads a file at its native sample rate, reducing channels to mono
	Decode(ctx context.Context, path string) (*model.Signal, error)

	// Encode writes the signal to path, replacing any existing file
	Encode(ctx context.Context, path string, sig *model.Signal) error

	// Probe reads file metadata without decoding samples
	Probe(ctx context.Context, path string) (*model.AudioMetadata, error)
}

// FFmpegExecutor is the abstraction for FFmpeg command execution
type FFmpegExecutor interface {
	// Execute runs an ffmpeg command with the given arguments
	Execute(ctx context.Context, args []string) error
}

// SynthesisBackend wraps an external model (face animation, lip-sync) that
// consumes file paths and produces a video file
type SynthesisBackend interface {
	// Run invokes the backend and returns the path of the video it produced
	Run(ctx context.Context, req model.SynthesisRequest) (string, error)
}

// Visualizer renders diagnostic images; it never influences produced audio
type Visualizer interface {
	// Render writes an original vs processed spectrogram comparison
	Render(ctx context.Context, req model.SpectrogramRequest) error
}

// StorageProvider abstracts filesystem or object storage operations
type StorageProvider interface {
	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the size in bytes of a written file
	Size(ctx context.Context, path string) (int64, error)

	// Remove deletes a file
	Remove(ctx context.Context, path string) error

	// TempFile creates a temporary file and returns its path
	TempFile(ctx context.Context, dir, pattern string) (string, error)

	// Rename atomically moves a file into place
	Rename(ctx context.Context, from, to string) error

	// MkdirAll ensures a directory exists
	MkdirAll(ctx context.Context, dir string) error

	// Newest returns the most recently modified file in dir matching a glob
	// pattern, or an empty path when nothing matches
	Newest(ctx context.Context, dir, pattern string) (string, error)
}

// Option is the functional option type
type Option func(*model.EnhancementOptions)

// WithBandpass sets the speech band cutoffs in Hz
func WithBandpass(lowHz, highHz float64) Option {
	return func(o *model.EnhancementOptions) {
		o.LowCutoffHz = lowHz
		o.HighCutoffHz = highHz
	}
}

// WithFilterOrder sets the Butterworth order of the speech band filter
func WithFilterOrder(order int) Option {
	return func(o *model.EnhancementOptions) {
		o.FilterOrder = order
	}
}

// WithEnhancementFactor sets the high-band blend strength around plosives
func WithEnhancementFactor(factor float64) Option {
	return func(o *model.EnhancementOptions) {
		o.EnhancementFactor = factor
	}
}

// WithPercentileThreshold sets the plosive score percentile (0-100)
func WithPercentileThreshold(p float64) Option {
	return func(o *model.EnhancementOptions) {
		o.PercentileThreshold = p
	}
}

// WithMinEventSeparation sets the minimum distance between plosives
func WithMinEventSeparation(d time.Duration) Option {
	return func(o *model.EnhancementOptions) {
		o.MinEventSeparationMs = float64(d) / float64(time.Millisecond)
	}
}

// WithLeadAdvance sets how far the audio is moved ahead of the video
func WithLeadAdvance(d time.Duration) Option {
	return func(o *model.EnhancementOptions) {
		o.LeadAdvanceSeconds = d.Seconds()
	}
}

// WithClipCeiling sets the output peak ceiling
func WithClipCeiling(ceiling float64) Option {
	return func(o *model.EnhancementOptions) {
		o.ClipCeiling = ceiling
	}
}

// WithVisualization enables the diagnostic spectrogram image
func WithVisualization(enabled bool) Option {
	return func(o *model.EnhancementOptions) {
		o.Visualize = enabled
	}
}

// WithTimeout bounds a single enhancement run
func WithTimeout(d time.Duration) Option {
	return func(o *model.EnhancementOptions) {
		o.Timeout = d
	}
}

// WithWorkers sets the number of concurrent workers for batch processing
func WithWorkers(n int) Option {
	return func(o *model.EnhancementOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}
