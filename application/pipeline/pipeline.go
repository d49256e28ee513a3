package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/Skryldev/talkinghead/application/enhance"
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Job holds the state of a single enhancement run
type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	Options    *model.EnhancementOptions
	Reporter   progress.Reporter
	Log        *logger.Logger
}

// Pipeline turns a speech recording into driving audio:
// load → bandpass → plosive enhancement → timing advance → normalize → write.
type Pipeline struct {
	codec      ports.SignalCodec
	storage    ports.StorageProvider
	visualizer ports.Visualizer
	enhancer   *enhance.Enhancer
	log        *logger.Logger
}

// NewPipeline creates a new enhancement pipeline. visualizer may be nil, in
// which case visualization requests are ignored.
func NewPipeline(codec ports.SignalCodec, storage ports.StorageProvider, visualizer ports.Visualizer, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		codec:      codec,
		storage:    storage,
		visualizer: visualizer,
		enhancer:   enhance.New(log.Named("enhance")),
		log:        log,
	}
}

// Run executes the full pipeline for a job. Every stage works on buffers
// owned by this call; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, job *Job) (*model.ProcessingResult, error) {
	start := time.Now()
	log := job.logger(p.log)

	if err := p.validateInput(ctx, job); err != nil {
		return nil, err
	}
	opts := job.Options

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sig, err := p.load(ctx, job.InputPath)
	if err != nil {
		return nil, err
	}
	job.report(progress.StageLoad, 5, "input decoded")
	log.Info("input decoded",
		zap.Int("sample_rate", sig.SampleRate),
		zap.Int("samples", sig.Len()),
		zap.Duration("duration", sig.Duration()),
	)

	var original *model.Signal
	if opts.Visualize {
		original = sig.Clone()
	}

	band, clamped := enhance.EffectiveBand(sig.SampleRate, opts.Bandpass())
	if clamped {
		log.Warn("high cutoff at or above nyquist, clamping",
			zap.Float64("requested_hz", opts.HighCutoffHz),
			zap.Float64("effective_hz", band.HighHz),
			zap.Int("sample_rate", sig.SampleRate),
		)
	}

	if err := checkpoint(ctx, progress.StageBandpass); err != nil {
		return nil, err
	}
	samples := p.enhancer.ApplyBandpass(sig.Samples, sig.SampleRate, band)
	job.report(progress.StageBandpass, 20, "speech band isolated")

	if err := checkpoint(ctx, progress.StagePlosives); err != nil {
		return nil, err
	}
	samples, events := p.enhancer.EnhancePlosives(samples, sig.SampleRate, opts.EnhancementFactor, enhance.DetectorConfigFrom(opts))
	job.report(progress.StagePlosives, 45, "plosives enhanced")

	if err := checkpoint(ctx, progress.StageAlign); err != nil {
		return nil, err
	}
	samples, onsets := p.enhancer.AdvanceForSync(samples, sig.SampleRate, opts.LeadAdvanceSeconds)
	shift := 0
	if len(onsets) > 0 {
		shift = min(enhance.LeadSamples(sig.SampleRate, opts.LeadAdvanceSeconds), len(samples))
	}
	job.report(progress.StageAlign, 65, "timing advanced")

	scale := enhance.PeakNormalize(samples, opts.ClipCeiling)
	job.report(progress.StageNormalize, 75, "peak normalized")

	if err := checkpoint(ctx, progress.StageWrite); err != nil {
		return nil, err
	}
	processed := &model.Signal{Samples: samples, SampleRate: sig.SampleRate}
	if err := p.persist(ctx, job.OutputPath, processed); err != nil {
		log.Error("failed to write output", zap.String("output", job.OutputPath), zap.Error(err))
		return nil, err
	}
	size, err := p.storage.Size(ctx, job.OutputPath)
	if err != nil {
		log.Warn("failed to stat output", zap.String("output", job.OutputPath), zap.Error(err))
	}
	job.report(progress.StageWrite, 90, "output written")

	result := &model.ProcessingResult{
		InputPath:          job.InputPath,
		OutputPath:         job.OutputPath,
		OutputSize:         size,
		InputMeta:          p.inputMeta(ctx, job.InputPath, sig, log),
		Band:               band,
		BandClamped:        clamped,
		Events:             events,
		Onsets:             len(onsets),
		ShiftSamples:       shift,
		NormalizationScale: scale,
	}

	if original != nil && p.visualizer != nil {
		result.SpectrogramPath = p.visualize(ctx, job, original, processed, band, log)
	}

	result.Duration = time.Since(start)
	result.ProcessedAt = time.Now()
	job.report(progress.StageDone, 100, "done")
	return result, nil
}

func (p *Pipeline) validateInput(ctx context.Context, job *Job) error {
	if job.InputPath == "" {
		return pkgerrors.NewValidationError("inputPath", "", "input path must not be empty")
	}
	if job.OutputPath == "" {
		return pkgerrors.NewValidationError("outputPath", "", "output path must not be empty")
	}
	if job.Options == nil {
		job.Options = model.DefaultEnhancementOptions()
	}

	exists, err := p.storage.Exists(ctx, job.InputPath)
	if err != nil {
		return pkgerrors.NewProcessingError("validate", "failed to check input file", err)
	}
	if !exists {
		return pkgerrors.NewValidationError("inputPath", job.InputPath, "input file does not exist")
	}

	return ValidateOptions(job.Options)
}

// ValidateOptions checks enhancement options for values no stage can work with
func ValidateOptions(opts *model.EnhancementOptions) error {
	switch {
	case opts.LowCutoffHz <= 0:
		return pkgerrors.NewValidationError("lowCutoffHz", opts.LowCutoffHz, "low cutoff must be positive")
	case opts.HighCutoffHz <= opts.LowCutoffHz:
		return pkgerrors.NewValidationError("highCutoffHz", opts.HighCutoffHz, "high cutoff must be above the low cutoff")
	case opts.FilterOrder < 0:
		return pkgerrors.NewValidationError("filterOrder", opts.FilterOrder, "filter order must not be negative")
	case opts.EnhancementFactor < 0:
		return pkgerrors.NewValidationError("enhancementFactor", opts.EnhancementFactor, "enhancement factor must not be negative")
	case opts.PercentileThreshold < 0 || opts.PercentileThreshold > 100:
		return pkgerrors.NewValidationError("percentileThreshold", opts.PercentileThreshold, "percentile must be within [0, 100]")
	case opts.MinEventSeparationMs < 0:
		return pkgerrors.NewValidationError("minEventSeparationMs", opts.MinEventSeparationMs, "event separation must not be negative")
	case opts.LeadAdvanceSeconds < 0:
		return pkgerrors.NewValidationError("leadAdvanceSeconds", opts.LeadAdvanceSeconds, "lead advance must not be negative")
	case opts.ClipCeiling <= 0 || opts.ClipCeiling > 1:
		return pkgerrors.NewValidationError("clipCeiling", opts.ClipCeiling, "clip ceiling must be within (0, 1]")
	}
	return nil
}

func (p *Pipeline) load(ctx context.Context, path string) (*model.Signal, error) {
	sig, err := p.codec.Decode(ctx, path)
	if err != nil {
		if _, ok := pkgerrors.As[*pkgerrors.DecodeError](err); ok {
			return nil, err
		}
		return nil, pkgerrors.NewDecodeError(path, "failed to decode input", err)
	}
	if sig.SampleRate <= 0 {
		return nil, pkgerrors.NewDecodeError(path, "input has no sample rate", nil)
	}
	return sig, nil
}

// persist writes sig next to path under a temporary name and renames it into
// place, so a failed write never leaves a partial file at path.
func (p *Pipeline) persist(ctx context.Context, path string, sig *model.Signal) error {
	dir := filepath.Dir(path)
	if err := p.storage.MkdirAll(ctx, dir); err != nil {
		return pkgerrors.NewWriteError(path, "failed to create output directory", err)
	}

	tmp, err := p.storage.TempFile(ctx, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkgerrors.NewWriteError(path, "failed to create temporary file", err)
	}

	if err := p.codec.Encode(ctx, tmp, sig); err != nil {
		return pkgerrors.NewWriteError(path, "failed to encode output",
			multierr.Append(err, p.storage.Remove(ctx, tmp)))
	}
	if err := p.storage.Rename(ctx, tmp, path); err != nil {
		return pkgerrors.NewWriteError(path, "failed to move output into place",
			multierr.Append(err, p.storage.Remove(ctx, tmp)))
	}
	return nil
}

// inputMeta probes the input file, falling back to what the decoded signal
// tells us when the codec cannot describe it.
func (p *Pipeline) inputMeta(ctx context.Context, path string, sig *model.Signal, log *logger.Logger) *model.AudioMetadata {
	meta, err := p.codec.Probe(ctx, path)
	if err == nil {
		return meta
	}
	// non-fatal: the audio was decoded and written already
	log.Warn("failed to probe input file", zap.Error(err))
	return &model.AudioMetadata{
		Duration:   sig.Duration(),
		SampleRate: sig.SampleRate,
		Channels:   1,
		Samples:    sig.Len(),
	}
}

func (p *Pipeline) visualize(ctx context.Context, job *Job, original, processed *model.Signal, band model.FilterSpec, log *logger.Logger) string {
	path := SpectrogramPath(job.OutputPath)
	err := p.visualizer.Render(ctx, model.SpectrogramRequest{
		Original:   original,
		Processed:  processed,
		LowHz:      band.LowHz,
		HighHz:     band.HighHz,
		OutputPath: path,
	})
	if err != nil {
		log.Warn("failed to render spectrogram", zap.String("path", path), zap.Error(err))
		return ""
	}
	job.report(progress.StageVisualize, 95, "spectrogram written")
	return path
}

// SpectrogramPath derives the diagnostic image path from an output path:
// the .wav extension is replaced by _spectrogram.png.
func SpectrogramPath(outputPath string) string {
	base := outputPath
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".wav") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "_spectrogram.png"
}

func checkpoint(ctx context.Context, stage progress.Stage) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewProcessingError(string(stage), "enhancement interrupted", err)
	}
	return nil
}

func (j *Job) logger(fallback *logger.Logger) *logger.Logger {
	if j.Log != nil {
		return j.Log
	}
	if j.ID == "" {
		return fallback
	}
	return fallback.With(zap.String("job_id", j.ID))
}

// report is a helper to emit progress updates
func (j *Job) report(stage progress.Stage, percent float64, msg string) {
	if j.Reporter == nil {
		return
	}
	j.Reporter.Report(progress.Update{
		JobID:   j.ID,
		Stage:   stage,
		Percent: percent,
		Message: msg,
	})
}
