// Package wavio reads and writes mono signals as WAV files.
package wavio

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
	"github.com/Skryldev/talkinghead/infrastructure/ffmpeg"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// OutputBitDepth is the sample width of every file Encode writes
	OutputBitDepth = 16

	formatPCM = 1
)

// Codec implements ports.SignalCodec on top of go-audio/wav. Inputs that are
// not PCM WAV are transcoded through ffmpeg when an executor is configured.
type Codec struct {
	executor ports.FFmpegExecutor
	storage  ports.StorageProvider
	log      *logger.Logger
}

// Config wires the optional transcoding fallback
type Config struct {
	// Executor converts non-WAV inputs; nil disables the fallback
	Executor ports.FFmpegExecutor

	// Storage provides temporary files for transcoding
	Storage ports.StorageProvider

	Logger *logger.Logger
}

// NewCodec creates a WAV codec
func NewCodec(cfg Config) *Codec {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Codec{
		executor: cfg.Executor,
		storage:  cfg.Storage,
		log:      log,
	}
}

// Decode loads path at its native sample rate and averages all channels to mono
func (c *Codec) Decode(ctx context.Context, path string) (*model.Signal, error) {
	sig, err := decodeFile(path)
	if err == nil {
		return sig, nil
	}
	if c.executor == nil || c.storage == nil {
		return nil, err
	}

	c.log.Info("input is not PCM WAV, transcoding", zap.String("path", path), zap.Error(err))
	return c.decodeTranscoded(ctx, path)
}

func (c *Codec) decodeTranscoded(ctx context.Context, path string) (sig *model.Signal, err error) {
	tmp, err := c.storage.TempFile(ctx, "", "talkinghead-*.wav")
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to create transcode target", err)
	}
	defer func() {
		if rmErr := c.storage.Remove(ctx, tmp); rmErr != nil {
			c.log.Warn("failed to remove transcoded file", zap.String("path", tmp), zap.Error(rmErr))
		}
	}()

	if err := c.executor.Execute(ctx, ffmpeg.TranscodeArgs(path, tmp)); err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to transcode input", err)
	}

	sig, err = decodeFile(tmp)
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to decode transcoded input", err)
	}
	return sig, nil
}

func decodeFile(path string) (*model.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to open audio file", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, pkgerrors.NewDecodeError(path, "not a valid WAV file", dec.Err())
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, pkgerrors.NewDecodeError(path,
			fmt.Sprintf("unsupported WAV format %d, only integer PCM is read", dec.WavAudioFormat), nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to read PCM data", err)
	}

	return &model.Signal{
		Samples:    toMono(buf, int(dec.BitDepth)),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// toMono averages interleaved channels and scales integer samples to [-1, 1).
// 8-bit WAV stores unsigned samples centered on 128.
func toMono(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := max(buf.Format.NumChannels, 1)
	frames := len(buf.Data) / channels

	full := math.Ldexp(1, bitDepth-1)
	offset := 0.0
	if bitDepth == 8 {
		offset = full
	}

	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += (float64(buf.Data[i*channels+ch]) - offset) / full
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Encode writes sig as mono 16-bit PCM. Samples outside [-1, 1] are clipped.
func (c *Codec) Encode(_ context.Context, path string, sig *model.Signal) (err error) {
	if sig.SampleRate <= 0 {
		return pkgerrors.NewValidationError("sampleRate", sig.SampleRate, "sample rate must be positive")
	}

	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.NewWriteError(path, "failed to create output file", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	full := math.Ldexp(1, OutputBitDepth-1) - 1
	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * full))
	}

	enc := wav.NewEncoder(f, sig.SampleRate, OutputBitDepth, 1, formatPCM)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sig.SampleRate},
		Data:           data,
		SourceBitDepth: OutputBitDepth,
	}); err != nil {
		return pkgerrors.NewWriteError(path, "failed to write audio", multierr.Append(err, enc.Close()))
	}
	if err := enc.Close(); err != nil {
		return pkgerrors.NewWriteError(path, "failed to finalize WAV header", err)
	}
	return nil
}

// Probe reads the WAV header of path
func (c *Codec) Probe(_ context.Context, path string) (*model.AudioMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to open audio file", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, pkgerrors.NewDecodeError(path, "not a valid WAV file", dec.Err())
	}
	duration, err := dec.Duration()
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to read duration", err)
	}

	meta := &model.AudioMetadata{
		Duration:   duration,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Codec:      codecName(dec.WavAudioFormat, int(dec.BitDepth)),
		Format:     "wav",
	}
	frameBytes := int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if err := dec.FwdToPCM(); err == nil && frameBytes > 0 {
		meta.Samples = int(dec.PCMLen() / frameBytes)
		// the container duration counts header bytes too
		if meta.SampleRate > 0 {
			meta.Duration = time.Duration(float64(meta.Samples) / float64(meta.SampleRate) * float64(time.Second))
		}
	}
	if info, err := f.Stat(); err == nil {
		meta.Size = info.Size()
	}
	return meta, nil
}

func codecName(format uint16, bitDepth int) string {
	switch {
	case format == 3:
		return fmt.Sprintf("pcm_f%dle", bitDepth)
	case format != formatPCM:
		return fmt.Sprintf("wav_format_%d", format)
	case bitDepth == 8:
		return "pcm_u8"
	default:
		return fmt.Sprintf("pcm_s%dle", bitDepth)
	}
}
