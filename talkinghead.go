package talkinghead

import (
	"context"

	"github.com/Skryldev/talkinghead/application/usecase"
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	"github.com/Skryldev/talkinghead/infrastructure/ffmpeg"
	"github.com/Skryldev/talkinghead/infrastructure/spectrogram"
	"github.com/Skryldev/talkinghead/infrastructure/storage"
	"github.com/Skryldev/talkinghead/infrastructure/synth"
	"github.com/Skryldev/talkinghead/infrastructure/wavio"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"github.com/Skryldev/talkinghead/pkg/retry"
	"go.uber.org/zap"
)

// Re-export types for convenient use by callers
type (
	Signal             = model.Signal
	EnhancementOptions = model.EnhancementOptions
	ProcessingResult   = model.ProcessingResult
	AudioMetadata      = model.AudioMetadata
	BatchJob           = model.BatchJob
	BatchResult        = model.BatchResult
	VideoJob           = model.VideoJob
	VideoResult        = model.VideoResult
	ProgressUpdate     = progress.Update
	ProgressStage      = progress.Stage
	Option             = ports.Option
)

// Re-export stage constants
const (
	StageLoad        = progress.StageLoad
	StageBandpass    = progress.StageBandpass
	StagePlosives    = progress.StagePlosives
	StageAlign       = progress.StageAlign
	StageNormalize   = progress.StageNormalize
	StageWrite       = progress.StageWrite
	StageVisualize   = progress.StageVisualize
	StageAnimate     = progress.StageAnimate
	StageLipSync     = progress.StageLipSync
	StagePostProcess = progress.StagePostProcess
	StageDone        = progress.StageDone
)

// Re-export option functions
var (
	WithBandpass              = ports.WithBandpass
	WithFilterOrder           = ports.WithFilterOrder
	WithEnhancementFactor     = ports.WithEnhancementFactor
	WithPercentileThreshold   = ports.WithPercentileThreshold
	WithMinEventSeparation    = ports.WithMinEventSeparation
	WithLeadAdvance           = ports.WithLeadAdvance
	WithClipCeiling           = ports.WithClipCeiling
	WithVisualization         = ports.WithVisualization
	WithTimeout               = ports.WithTimeout
	WithWorkers               = ports.WithWorkers
	DefaultEnhancementOptions = model.DefaultEnhancementOptions
)

// Config holds top-level configuration for the processor
type Config struct {
	// FFmpegPath is the path to ffmpeg binary (auto-detected if empty).
	// Without ffmpeg only PCM WAV input is accepted and video generation
	// is unavailable.
	FFmpegPath string

	// AnimatorDir and LipSyncDir are the checkouts of the face animation and
	// lip-sync models. Both are required for GenerateVideo.
	AnimatorDir string
	LipSyncDir  string

	// Interpreter runs the model inference scripts (default: python)
	Interpreter string

	// Logger is an optional custom logger. Uses production zap if nil.
	Logger *logger.Logger

	// ZapLogger allows passing a *zap.Logger directly
	ZapLogger *zap.Logger

	// ProgressCh is an optional channel for receiving progress updates
	ProgressCh chan<- ProgressUpdate

	// Workers sets the number of parallel batch workers (default: 4)
	Workers int

	// RetryConfig lets the synthesis backends be retried. By default each
	// backend runs once and its first failure fails the video.
	RetryConfig *retry.Config
}

// Processor is the main entry point
type Processor struct {
	audio *usecase.AudioService
	video *usecase.VideoService
	log   *logger.Logger
}

// New creates a new Processor with the given configuration
func New(cfg Config) (*Processor, error) {
	log := cfg.Logger
	if log == nil && cfg.ZapLogger != nil {
		log = logger.FromZap(cfg.ZapLogger)
	}
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, err
		}
	}

	videoEnabled := cfg.AnimatorDir != "" || cfg.LipSyncDir != ""

	exec, err := ffmpeg.NewExecutor(ffmpeg.ExecutorConfig{
		FFmpegPath: cfg.FFmpegPath,
		Logger:     log.Named("ffmpeg"),
	})
	if err != nil {
		if videoEnabled || cfg.FFmpegPath != "" {
			return nil, err
		}
		log.Debug("ffmpeg unavailable, only PCM WAV input is accepted", zap.Error(err))
	}

	store := storage.NewLocalStorage()

	var reporter progress.Reporter = progress.NoopReporter{}
	if cfg.ProgressCh != nil {
		reporter = progress.NewChannelReporter(cfg.ProgressCh)
	}

	codecCfg := wavio.Config{Storage: store, Logger: log.Named("wavio")}
	if exec != nil {
		codecCfg.Executor = exec
	}

	audio, err := usecase.NewAudioService(usecase.Config{
		Codec:      wavio.NewCodec(codecCfg),
		Storage:    store,
		Visualizer: spectrogram.NewRenderer(spectrogram.Config{Logger: log.Named("spectrogram")}),
		Reporter:   reporter,
		Logger:     log,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	p := &Processor{audio: audio, log: log}
	if !videoEnabled {
		return p, nil
	}

	animator, err := synth.NewAnimator(synth.CommandConfig{
		Dir:         cfg.AnimatorDir,
		Interpreter: cfg.Interpreter,
		Storage:     store,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	lipSync, err := synth.NewLipSync(synth.CommandConfig{
		Dir:         cfg.LipSyncDir,
		Interpreter: cfg.Interpreter,
		Storage:     store,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	retryCfg := retry.Once()
	if cfg.RetryConfig != nil {
		retryCfg = *cfg.RetryConfig
	}

	p.video, err = usecase.NewVideoService(usecase.VideoConfig{
		Audio:       audio,
		Animator:    animator,
		LipSync:     lipSync,
		Executor:    exec,
		Storage:     store,
		Reporter:    reporter,
		Logger:      log,
		RetryConfig: retryCfg,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProcessAudio enhances a single recording into driving audio
func (p *Processor) ProcessAudio(ctx context.Context, inputPath, outputPath string, opts ...Option) (*ProcessingResult, error) {
	return p.audio.ProcessAudio(ctx, inputPath, outputPath, opts...)
}

// ProcessBatch enhances multiple recordings concurrently
func (p *Processor) ProcessBatch(ctx context.Context, jobs []BatchJob) (<-chan BatchResult, error) {
	return p.audio.ProcessBatch(ctx, jobs)
}

// ProbeAudio returns metadata about an audio file without processing
func (p *Processor) ProbeAudio(ctx context.Context, inputPath string) (*AudioMetadata, error) {
	return p.audio.ProbeAudio(ctx, inputPath)
}

// GenerateVideo runs the full talking-head pipeline. It requires the model
// checkouts to be configured.
func (p *Processor) GenerateVideo(ctx context.Context, job VideoJob) (*VideoResult, error) {
	if p.video == nil {
		return nil, pkgerrors.NewValidationError("animatorDir", "", "video generation needs the animator and lip-sync directories")
	}
	return p.video.Generate(ctx, job)
}

// Close flushes the logger and releases resources
func (p *Processor) Close() {
	_ = p.log.Sync()
}
