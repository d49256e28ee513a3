package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Skryldev/talkinghead/application/pipeline"
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	"github.com/Skryldev/talkinghead/infrastructure/ffmpeg"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"github.com/Skryldev/talkinghead/pkg/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Output layout inside VideoJob.OutputDir
const (
	AnimationDir       = "animation"
	LipSyncVideo       = "lipsync.mp4"
	FinalEnhancedVideo = "final_enhanced_video.mp4"
	FinalVideo         = "final_video.mp4"

	// post-processing targets
	PostProcessFPS   = 30
	PostProcessSize  = 512
	PostProcessScale = "lanczos"
)

// VideoService orchestrates talking-head generation:
// enhance audio → animate face → lip-sync → post-process.
type VideoService struct {
	audio    ports.AudioProcessor
	animator ports.SynthesisBackend
	lipSync  ports.SynthesisBackend
	executor ports.FFmpegExecutor
	storage  ports.StorageProvider
	reporter progress.Reporter
	log      *logger.Logger
	retryCfg retry.Config
}

// VideoConfig holds VideoService configuration
type VideoConfig struct {
	Audio    ports.AudioProcessor
	Animator ports.SynthesisBackend
	LipSync  ports.SynthesisBackend
	Executor ports.FFmpegExecutor
	Storage  ports.StorageProvider
	Reporter progress.Reporter
	Logger   *logger.Logger

	// RetryConfig governs the external synthesis backends only. The zero
	// value runs each backend once.
	RetryConfig retry.Config
}

// NewVideoService creates a new VideoService
func NewVideoService(cfg VideoConfig) (*VideoService, error) {
	switch {
	case cfg.Audio == nil:
		return nil, fmt.Errorf("AudioProcessor is required")
	case cfg.Animator == nil:
		return nil, fmt.Errorf("animation backend is required")
	case cfg.LipSync == nil:
		return nil, fmt.Errorf("lip-sync backend is required")
	case cfg.Executor == nil:
		return nil, fmt.Errorf("FFmpegExecutor is required")
	case cfg.Storage == nil:
		return nil, fmt.Errorf("StorageProvider is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	retryCfg := cfg.RetryConfig
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.Once()
	}

	return &VideoService{
		audio:    cfg.Audio,
		animator: cfg.Animator,
		lipSync:  cfg.LipSync,
		executor: cfg.Executor,
		storage:  cfg.Storage,
		reporter: reporter,
		log:      log,
		retryCfg: retryCfg,
	}, nil
}

// Generate produces a talking-head video from a face image and a speech
// recording. The enhanced audio drives the animation; the original recording
// drives the lip-sync so the final soundtrack is the unprocessed voice.
func (s *VideoService) Generate(ctx context.Context, job model.VideoJob) (*model.VideoResult, error) {
	start := time.Now()
	jobID := uuid.NewString()
	log := s.log.With(zap.String("job_id", jobID))

	if err := s.validate(ctx, job); err != nil {
		return nil, err
	}
	if err := s.storage.MkdirAll(ctx, job.OutputDir); err != nil {
		return nil, pkgerrors.NewWriteError(job.OutputDir, "failed to create output directory", err)
	}

	result := &model.VideoResult{
		DrivenAudio:   job.DrivenAudio,
		OriginalAudio: job.DrivenAudio,
	}

	if !job.SkipAudioProcessing {
		enhanced := EnhancedAudioPath(job.OutputDir, job.DrivenAudio)
		log.Info("enhancing driving audio", zap.String("output", enhanced))

		res, err := s.audio.ProcessAudio(ctx, job.DrivenAudio, enhanced,
			withOptions(job.Audio), ports.WithVisualization(job.VisualizeAudio))
		if err != nil {
			return nil, err
		}
		result.Enhancement = res
		result.DrivenAudio = res.OutputPath
	}

	animated, err := s.runBackend(ctx, "animate", s.animator, model.SynthesisRequest{
		AudioPath: result.DrivenAudio,
		ImagePath: job.SourceImage,
		OutputDir: filepath.Join(job.OutputDir, AnimationDir),
	})
	if err != nil {
		log.Error("animation failed", zap.Error(err))
		return nil, err
	}
	result.AnimatedVideo = animated
	s.report(jobID, progress.StageAnimate, 50, "face animated")

	synced, err := s.runBackend(ctx, "lipsync", s.lipSync, model.SynthesisRequest{
		AudioPath:  result.OriginalAudio,
		VideoPath:  animated,
		OutputPath: filepath.Join(job.OutputDir, LipSyncVideo),
	})
	if err != nil {
		log.Error("lip-sync failed", zap.Error(err))
		return nil, err
	}
	result.LipSyncVideo = synced
	s.report(jobID, progress.StageLipSync, 80, "lips synchronized")

	final, err := s.finish(ctx, job, synced)
	if err != nil {
		log.Error("post-processing failed", zap.Error(err))
		return nil, err
	}
	result.FinalVideo = final
	s.report(jobID, progress.StagePostProcess, 95, "video finalized")

	result.Duration = time.Since(start)
	s.report(jobID, progress.StageDone, 100, "done")
	log.Info("talking-head video ready",
		zap.String("video", final),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *VideoService) validate(ctx context.Context, job model.VideoJob) error {
	if job.OutputDir == "" {
		return pkgerrors.NewValidationError("outputDir", "", "output directory must not be empty")
	}
	inputs := []struct{ field, path string }{
		{"sourceImage", job.SourceImage},
		{"drivenAudio", job.DrivenAudio},
	}
	for _, in := range inputs {
		if in.path == "" {
			return pkgerrors.NewValidationError(in.field, "", "path must not be empty")
		}
		exists, err := s.storage.Exists(ctx, in.path)
		if err != nil {
			return pkgerrors.NewProcessingError("validate", "failed to check "+in.field, err)
		}
		if !exists {
			return pkgerrors.NewValidationError(in.field, in.path, "file does not exist")
		}
	}
	if job.Audio != nil {
		if err := pipeline.ValidateOptions(job.Audio); err != nil {
			return err
		}
	}
	return nil
}

// runBackend retries transient backend failures. Invalid requests fail at once.
func (s *VideoService) runBackend(ctx context.Context, stage string, backend ports.SynthesisBackend, req model.SynthesisRequest) (string, error) {
	var video string
	err := retry.Do(ctx, s.retryCfg, func() error {
		var runErr error
		video, runErr = backend.Run(ctx, req)
		if _, ok := pkgerrors.As[*pkgerrors.ValidationError](runErr); ok {
			return retry.Permanent(runErr)
		}
		if runErr != nil {
			s.log.Warn("synthesis backend failed", zap.String("stage", stage), zap.Error(runErr))
		}
		return runErr
	})
	return video, err
}

// finish interpolates and upscales the lip-synced video, or just moves it to
// its final name when post-processing is skipped.
func (s *VideoService) finish(ctx context.Context, job model.VideoJob, video string) (string, error) {
	if job.SkipPostProcessing {
		final := filepath.Join(job.OutputDir, FinalVideo)
		if err := s.storage.Rename(ctx, video, final); err != nil {
			return "", pkgerrors.NewWriteError(final, "failed to move video into place", err)
		}
		return final, nil
	}

	final := filepath.Join(job.OutputDir, FinalEnhancedVideo)
	filters := ffmpeg.NewFilterChainBuilder().
		AddMinterpolate(PostProcessFPS).
		AddScale(PostProcessSize, PostProcessSize, PostProcessScale)
	if err := s.executor.Execute(ctx, ffmpeg.PostProcessArgs(video, final, filters)); err != nil {
		return "", err
	}
	return final, nil
}

func (s *VideoService) report(jobID string, stage progress.Stage, percent float64, msg string) {
	s.reporter.Report(progress.Update{
		JobID:   jobID,
		Stage:   stage,
		Percent: percent,
		Message: msg,
	})
}

// EnhancedAudioPath names the enhanced copy of audio inside dir:
// voice.wav becomes <dir>/voice_enhanced.wav.
func EnhancedAudioPath(dir, audio string) string {
	base := filepath.Base(audio)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_enhanced.wav")
}

// withOptions replaces the defaults with a caller-owned option set
func withOptions(src *model.EnhancementOptions) ports.Option {
	return func(o *model.EnhancementOptions) {
		if src != nil {
			*o = *src
		}
	}
}
