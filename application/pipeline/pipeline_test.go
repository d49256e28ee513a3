package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	"github.com/Skryldev/talkinghead/internal/mocks"
	"github.com/Skryldev/talkinghead/internal/testsignal"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const tmpPath = "/tmp/mock_temp_file"

func newTestPipeline(sig *model.Signal, vis ports.Visualizer) (*Pipeline, *mocks.MockSignalCodec, *mocks.MockStorageProvider) {
	codec := &mocks.MockSignalCodec{Signal: sig}
	store := &mocks.MockStorageProvider{}
	return NewPipeline(codec, store, vis, logger.Nop()), codec, store
}

func newJob() *Job {
	return &Job{
		ID:         "job-1",
		InputPath:  "voice.wav",
		OutputPath: "out/voice_enhanced.wav",
		Options:    model.DefaultEnhancementOptions(),
	}
}

func TestRunSilence(t *testing.T) {
	p, codec, store := newTestPipeline(&model.Signal{Samples: testsignal.Silence(16000), SampleRate: 16000}, nil)

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)

	out := codec.Written(tmpPath)
	require.NotNil(t, out)
	assert.Len(t, out.Samples, 16000)
	assert.Equal(t, 16000, out.SampleRate)
	assert.Equal(t, 0.0, testsignal.PeakAbs(out.Samples))

	assert.Empty(t, res.Events)
	assert.Zero(t, res.Onsets)
	assert.Zero(t, res.ShiftSamples)
	assert.Equal(t, 1.0, res.NormalizationScale)
	assert.Equal(t, "out/voice_enhanced.wav", res.OutputPath)
	assert.Empty(t, res.SpectrogramPath)
	assert.Equal(t, [][2]string{{tmpPath, "out/voice_enhanced.wav"}}, store.Renamed)
}

func TestRunSyllable(t *testing.T) {
	x := testsignal.Syllable(16000, 2, 0.5)
	p, codec, _ := newTestPipeline(&model.Signal{Samples: x, SampleRate: 16000}, nil)

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Events)
	for _, ev := range res.Events {
		assert.InDelta(t, 16, ev.Frame, 4)
	}
	assert.Positive(t, res.Onsets)
	assert.Equal(t, 320, res.ShiftSamples)
	assert.Equal(t, 1.0, res.NormalizationScale)

	out := codec.Written(tmpPath)
	require.NotNil(t, out)
	require.Len(t, out.Samples, len(x))

	// the audio now starts one lead earlier and ends in zeros
	assert.InDelta(t, testsignal.FirstAbove(x, 0.05)-320, testsignal.FirstAbove(out.Samples, 0.05), 40)
	for _, v := range out.Samples[len(x)-320:] {
		assert.Equal(t, 0.0, v)
	}
	assert.LessOrEqual(t, testsignal.PeakAbs(out.Samples), 0.95)
}

func TestRunNormalizesLoudInput(t *testing.T) {
	x := testsignal.Syllable(16000, 2, 0.5)
	for i := range x {
		x[i] *= 2
	}
	p, codec, _ := newTestPipeline(&model.Signal{Samples: x, SampleRate: 16000}, nil)

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)

	assert.Less(t, res.NormalizationScale, 1.0)
	assert.InDelta(t, 0.95, testsignal.PeakAbs(codec.Written(tmpPath).Samples), 1e-9)
}

func TestRunDefaultsMissingOptions(t *testing.T) {
	p, _, _ := newTestPipeline(&model.Signal{Samples: testsignal.Silence(1024), SampleRate: 16000}, nil)
	job := newJob()
	job.Options = nil

	_, err := p.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultEnhancementOptions(), job.Options)
}

func TestRunLogsClamp(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	codec := &mocks.MockSignalCodec{Signal: &model.Signal{Samples: testsignal.Silence(4096), SampleRate: 16000}}
	p := NewPipeline(codec, &mocks.MockStorageProvider{}, nil, logger.FromZap(zap.New(core)))

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)

	assert.True(t, res.BandClamped)
	assert.InDelta(t, 7920, res.Band.HighHz, 1e-9)
	assert.Equal(t, 50.0, res.Band.LowHz)

	entries := logs.FilterMessageSnippet("clamping").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, 14000.0, fields["requested_hz"])
	assert.InDelta(t, 7920, fields["effective_hz"], 1e-9)
}

func TestRunNoClampAtHighRate(t *testing.T) {
	p, _, _ := newTestPipeline(&model.Signal{Samples: testsignal.Silence(4096), SampleRate: 44100}, nil)

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)
	assert.False(t, res.BandClamped)
	assert.Equal(t, 14000.0, res.Band.HighHz)
}

func TestRunVisualization(t *testing.T) {
	x := testsignal.Syllable(16000, 1, 0.3)

	t.Run("renders original and processed", func(t *testing.T) {
		vis := &mocks.MockVisualizer{}
		p, codec, _ := newTestPipeline(&model.Signal{Samples: x, SampleRate: 16000}, vis)
		job := newJob()
		job.Options.Visualize = true

		res, err := p.Run(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, "out/voice_enhanced_spectrogram.png", res.SpectrogramPath)

		require.Len(t, vis.Requests, 1)
		req := vis.Requests[0]
		assert.Equal(t, x, req.Original.Samples)
		assert.Equal(t, codec.Written(tmpPath).Samples, req.Processed.Samples)
		assert.Equal(t, 50.0, req.LowHz)
		assert.InDelta(t, 7920, req.HighHz, 1e-9)
	})

	t.Run("disabled", func(t *testing.T) {
		vis := &mocks.MockVisualizer{}
		p, _, _ := newTestPipeline(&model.Signal{Samples: x, SampleRate: 16000}, vis)

		res, err := p.Run(context.Background(), newJob())
		require.NoError(t, err)
		assert.Empty(t, res.SpectrogramPath)
		assert.Empty(t, vis.Requests)
	})

	t.Run("render failure keeps the result", func(t *testing.T) {
		vis := &mocks.MockVisualizer{
			RenderFunc: func(context.Context, model.SpectrogramRequest) error { return errors.New("disk full") },
		}
		p, codec, _ := newTestPipeline(&model.Signal{Samples: x, SampleRate: 16000}, vis)
		job := newJob()
		job.Options.Visualize = true

		res, err := p.Run(context.Background(), job)
		require.NoError(t, err)
		assert.Empty(t, res.SpectrogramPath)
		assert.NotNil(t, codec.Written(tmpPath))
	})
}

func TestRunDecodeFailure(t *testing.T) {
	t.Run("codec error", func(t *testing.T) {
		p, codec, _ := newTestPipeline(nil, nil)
		codec.DecodeFunc = func(context.Context, string) (*model.Signal, error) {
			return nil, errors.New("unexpected EOF")
		}

		_, err := p.Run(context.Background(), newJob())
		decErr, ok := pkgerrors.As[*pkgerrors.DecodeError](err)
		require.True(t, ok)
		assert.Equal(t, "voice.wav", decErr.Path)
		assert.Nil(t, codec.Written(tmpPath))
	})

	t.Run("no sample rate", func(t *testing.T) {
		p, _, _ := newTestPipeline(&model.Signal{Samples: []float64{0.1}}, nil)

		_, err := p.Run(context.Background(), newJob())
		_, ok := pkgerrors.As[*pkgerrors.DecodeError](err)
		assert.True(t, ok)
	})
}

func TestRunWriteFailure(t *testing.T) {
	sig := &model.Signal{Samples: testsignal.Silence(2048), SampleRate: 16000}

	t.Run("encode", func(t *testing.T) {
		p, codec, store := newTestPipeline(sig, nil)
		codec.EncodeFunc = func(context.Context, string, *model.Signal) error { return errors.New("no space left on device") }

		_, err := p.Run(context.Background(), newJob())
		writeErr, ok := pkgerrors.As[*pkgerrors.WriteError](err)
		require.True(t, ok)
		assert.Equal(t, "out/voice_enhanced.wav", writeErr.Path)
		assert.Equal(t, []string{tmpPath}, store.Removed)
		assert.Empty(t, store.Renamed)
	})

	t.Run("rename", func(t *testing.T) {
		p, _, store := newTestPipeline(sig, nil)
		store.RenameFunc = func(context.Context, string, string) error { return errors.New("cross-device link") }

		_, err := p.Run(context.Background(), newJob())
		_, ok := pkgerrors.As[*pkgerrors.WriteError](err)
		require.True(t, ok)
		assert.Equal(t, []string{tmpPath}, store.Removed)
	})

	t.Run("temp file", func(t *testing.T) {
		p, _, store := newTestPipeline(sig, nil)
		store.TempFileFunc = func(context.Context, string, string) (string, error) { return "", errors.New("permission denied") }

		_, err := p.Run(context.Background(), newJob())
		_, ok := pkgerrors.As[*pkgerrors.WriteError](err)
		require.True(t, ok)
		assert.Empty(t, store.Removed)
	})
}

func TestRunValidation(t *testing.T) {
	sig := &model.Signal{Samples: testsignal.Silence(2048), SampleRate: 16000}

	tests := []struct {
		name   string
		mutate func(*Job, *mocks.MockStorageProvider)
		field  string
	}{
		{"empty input", func(j *Job, _ *mocks.MockStorageProvider) { j.InputPath = "" }, "inputPath"},
		{"empty output", func(j *Job, _ *mocks.MockStorageProvider) { j.OutputPath = "" }, "outputPath"},
		{"missing input", func(_ *Job, s *mocks.MockStorageProvider) {
			s.ExistsFunc = func(context.Context, string) (bool, error) { return false, nil }
		}, "inputPath"},
		{"inverted band", func(j *Job, _ *mocks.MockStorageProvider) { j.Options.HighCutoffHz = 40 }, "highCutoffHz"},
		{"negative factor", func(j *Job, _ *mocks.MockStorageProvider) { j.Options.EnhancementFactor = -1 }, "enhancementFactor"},
		{"ceiling", func(j *Job, _ *mocks.MockStorageProvider) { j.Options.ClipCeiling = 0 }, "clipCeiling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, codec, store := newTestPipeline(sig, nil)
			job := newJob()
			tt.mutate(job, store)

			_, err := p.Run(context.Background(), job)
			valErr, ok := pkgerrors.As[*pkgerrors.ValidationError](err)
			require.True(t, ok)
			assert.Equal(t, tt.field, valErr.Field)
			assert.Empty(t, codec.Encoded)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	p, codec, _ := newTestPipeline(&model.Signal{Samples: testsignal.Silence(2048), SampleRate: 16000}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, newJob())
	procErr, ok := pkgerrors.As[*pkgerrors.ProcessingError](err)
	require.True(t, ok)
	assert.Equal(t, string(progress.StageBandpass), procErr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, codec.Encoded)
}

func TestRunReportsProgress(t *testing.T) {
	p, _, _ := newTestPipeline(&model.Signal{Samples: testsignal.Silence(2048), SampleRate: 16000}, nil)
	var updates []progress.Update
	job := newJob()
	job.Reporter = progress.FuncReporter(func(u progress.Update) { updates = append(updates, u) })

	_, err := p.Run(context.Background(), job)
	require.NoError(t, err)

	var stages []progress.Stage
	for i, u := range updates {
		stages = append(stages, u.Stage)
		assert.Equal(t, "job-1", u.JobID)
		if i > 0 {
			assert.Greater(t, u.Percent, updates[i-1].Percent)
		}
	}
	assert.Equal(t, []progress.Stage{
		progress.StageLoad, progress.StageBandpass, progress.StagePlosives,
		progress.StageAlign, progress.StageNormalize, progress.StageWrite, progress.StageDone,
	}, stages)
}

func TestRunFallsBackToSignalMetadata(t *testing.T) {
	p, codec, _ := newTestPipeline(&model.Signal{Samples: testsignal.Silence(8000), SampleRate: 16000}, nil)
	codec.ProbeFunc = func(context.Context, string) (*model.AudioMetadata, error) {
		return nil, errors.New("not a WAV file")
	}

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)
	assert.Equal(t, 8000, res.InputMeta.Samples)
	assert.Equal(t, 16000, res.InputMeta.SampleRate)
	assert.Equal(t, 1, res.InputMeta.Channels)
}

func TestRunReportsOutputSize(t *testing.T) {
	p, _, store := newTestPipeline(&model.Signal{Samples: testsignal.Silence(8000), SampleRate: 16000}, nil)
	var stat []string
	store.SizeFunc = func(_ context.Context, path string) (int64, error) {
		stat = append(stat, path)
		return 16044, nil
	}

	res, err := p.Run(context.Background(), newJob())
	require.NoError(t, err)
	assert.Equal(t, int64(16044), res.OutputSize)
	assert.Equal(t, []string{"out/voice_enhanced.wav"}, stat, "the final path is measured, not the staging file")

	store.SizeFunc = func(context.Context, string) (int64, error) {
		return 0, errors.New("stat failed")
	}
	res, err = p.Run(context.Background(), newJob())
	require.NoError(t, err, "a failed stat does not fail the run")
	assert.Zero(t, res.OutputSize)
}

func TestSpectrogramPath(t *testing.T) {
	assert.Equal(t, "out/voice_spectrogram.png", SpectrogramPath("out/voice.wav"))
	assert.Equal(t, "out/voice_spectrogram.png", SpectrogramPath("out/voice.WAV"))
	assert.Equal(t, "out/voice.flac_spectrogram.png", SpectrogramPath("out/voice.flac"))
}
