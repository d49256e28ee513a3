package usecase

import (
	"context"
	"fmt"

	"github.com/Skryldev/talkinghead/application/pipeline"
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AudioService is the main application service implementing ports.AudioProcessor
type AudioService struct {
	pipeline   *pipeline.Pipeline
	workerPool *pipeline.WorkerPool
	codec      ports.SignalCodec
	storage    ports.StorageProvider
	reporter   progress.Reporter
	log        *logger.Logger
}

// Config holds AudioService configuration
type Config struct {
	Codec   ports.SignalCodec
	Storage ports.StorageProvider

	// Visualizer renders spectrograms for runs with visualization enabled;
	// nil skips them
	Visualizer ports.Visualizer

	Reporter progress.Reporter
	Logger   *logger.Logger
	Workers  int
}

// NewAudioService creates a new AudioService
func NewAudioService(cfg Config) (*AudioService, error) {
	if cfg.Codec == nil {
		return nil, fmt.Errorf("SignalCodec is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("StorageProvider is required")
	}

	log := cfg.Logger
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	p := pipeline.NewPipeline(cfg.Codec, cfg.Storage, cfg.Visualizer, log)
	wp := pipeline.NewWorkerPool(p, cfg.Workers, log)

	return &AudioService{
		pipeline:   p,
		workerPool: wp,
		codec:      cfg.Codec,
		storage:    cfg.Storage,
		reporter:   reporter,
		log:        log,
	}, nil
}

// ProcessAudio enhances a single recording. Enhancement is deterministic, so
// a failed run is reported as is and never retried.
func (s *AudioService) ProcessAudio(ctx context.Context, inputPath, outputPath string, opts ...ports.Option) (*model.ProcessingResult, error) {
	options := model.DefaultEnhancementOptions()
	for _, o := range opts {
		o(options)
	}

	jobID := uuid.NewString()
	log := s.log.With(zap.String("job_id", jobID))

	log.Info("starting audio enhancement",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Float64("low_hz", options.LowCutoffHz),
		zap.Float64("high_hz", options.HighCutoffHz),
		zap.Float64("factor", options.EnhancementFactor),
	)

	result, err := s.pipeline.Run(ctx, &pipeline.Job{
		ID:         jobID,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Options:    options,
		Reporter:   s.reporter,
		Log:        log,
	})
	if err != nil {
		log.Error("audio enhancement failed",
			zap.String("input", inputPath),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("audio enhancement completed",
		zap.String("output", result.OutputPath),
		zap.Int("events", len(result.Events)),
		zap.Int("shift_samples", result.ShiftSamples),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// ProcessBatch processes multiple jobs concurrently. Jobs without an ID get one.
func (s *AudioService) ProcessBatch(ctx context.Context, jobs []model.BatchJob) (<-chan model.BatchResult, error) {
	if len(jobs) == 0 {
		ch := make(chan model.BatchResult)
		close(ch)
		return ch, nil
	}

	batch := make([]model.BatchJob, len(jobs))
	copy(batch, jobs)
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
	}

	s.log.Info("starting batch processing",
		zap.Int("job_count", len(batch)),
	)

	return s.workerPool.Run(ctx, batch, s.reporter)
}

// ProbeAudio returns metadata about an audio file without processing it
func (s *AudioService) ProbeAudio(ctx context.Context, inputPath string) (*model.AudioMetadata, error) {
	exists, err := s.storage.Exists(ctx, inputPath)
	if err != nil {
		return nil, pkgerrors.NewProcessingError("probe", "failed to check file", err)
	}
	if !exists {
		return nil, pkgerrors.NewValidationError("inputPath", inputPath, "file does not exist")
	}

	return s.codec.Probe(ctx, inputPath)
}
