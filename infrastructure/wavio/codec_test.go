package wavio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/internal/mocks"
	"github.com/Skryldev/talkinghead/internal/testsignal"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes raw interleaved integer samples with the go-audio encoder.
func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
}

func TestCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(Config{})
	path := filepath.Join(t.TempDir(), "tone.wav")

	in := &model.Signal{Samples: testsignal.Sine(16000, 16000, 440, 0.5), SampleRate: 16000}
	require.NoError(t, c.Encode(ctx, path, in))

	out, err := c.Decode(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 16000, out.SampleRate)
	require.Len(t, out.Samples, len(in.Samples))
	for i := range in.Samples {
		assert.InDelta(t, in.Samples[i], out.Samples[i], 1.0/32767, "sample %d", i)
	}
}

func TestCodecEmptySignal(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(Config{})
	path := filepath.Join(t.TempDir(), "empty.wav")

	require.NoError(t, c.Encode(ctx, path, &model.Signal{SampleRate: 16000}))

	out, err := c.Decode(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 16000, out.SampleRate)
	assert.Empty(t, out.Samples)
}

func TestCodecEncodeClips(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(Config{})
	path := filepath.Join(t.TempDir(), "loud.wav")

	require.NoError(t, c.Encode(ctx, path, &model.Signal{Samples: []float64{1.5, -2, 0.25}, SampleRate: 8000}))

	out, err := c.Decode(ctx, path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{32767.0 / 32768, -32767.0 / 32768, 8192.0 / 32768}, out.Samples, 1e-12)
}

func TestCodecEncodeRejectsMissingRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := NewCodec(Config{}).Encode(context.Background(), path, &model.Signal{Samples: []float64{0}})
	_, ok := pkgerrors.As[*pkgerrors.ValidationError](err)
	assert.True(t, ok)
	assert.NoFileExists(t, path)
}

func TestCodecDecodeFormats(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(Config{})
	dir := t.TempDir()

	tests := []struct {
		name     string
		bitDepth int
		channels int
		data     []int
		want     []float64
	}{
		{"stereo averaged", 16, 2, []int{16384, 0, -16384, -16384}, []float64{0.25, -0.5}},
		{"8-bit unsigned", 8, 1, []int{128, 255, 0}, []float64{0, 127.0 / 128, -1}},
		{"24-bit", 24, 1, []int{1 << 22, -(1 << 21)}, []float64{0.5, -0.25}},
		{"32-bit", 32, 1, []int{1 << 30}, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".wav")
			writeWAV(t, path, 22050, tt.bitDepth, tt.channels, tt.data)

			sig, err := c.Decode(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 22050, sig.SampleRate)
			assert.InDeltaSlice(t, tt.want, sig.Samples, 1e-12)
		})
	}
}

func TestCodecDecodeInvalid(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))

	_, err := NewCodec(Config{}).Decode(ctx, path)
	decErr, ok := pkgerrors.As[*pkgerrors.DecodeError](err)
	require.True(t, ok)
	assert.Equal(t, path, decErr.Path)

	_, err = NewCodec(Config{}).Decode(ctx, filepath.Join(dir, "missing.wav"))
	_, ok = pkgerrors.As[*pkgerrors.DecodeError](err)
	assert.True(t, ok)
}

func TestCodecDecodeTranscodes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	input := filepath.Join(dir, "voice.mp3")
	require.NoError(t, os.WriteFile(input, []byte("ID3"), 0o644))

	transcoded := filepath.Join(dir, "transcoded.wav")
	exec := &mocks.MockFFmpegExecutor{
		ExecuteFunc: func(_ context.Context, args []string) error {
			writeWAV(t, args[len(args)-1], 16000, 16, 1, []int{0, 16384, -16384})
			return nil
		},
	}
	store := &mocks.MockStorageProvider{
		TempFileFunc: func(context.Context, string, string) (string, error) { return transcoded, nil },
		RemoveFunc:   func(_ context.Context, path string) error { return os.Remove(path) },
	}

	sig, err := NewCodec(Config{Executor: exec, Storage: store}).Decode(ctx, input)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, -0.5}, sig.Samples, 1e-12)

	calls := exec.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], input)
	assert.Equal(t, []string{transcoded}, store.Removed)
	assert.NoFileExists(t, transcoded)
}

func TestCodecDecodeTranscodeFailure(t *testing.T) {
	ctx := context.Background()
	input := filepath.Join(t.TempDir(), "voice.mp3")
	require.NoError(t, os.WriteFile(input, []byte("ID3"), 0o644))

	exec := &mocks.MockFFmpegExecutor{
		ExecuteFunc: func(_ context.Context, args []string) error {
			return pkgerrors.NewFFmpegError("ffmpeg execution failed", args, 1, "invalid data", nil)
		},
	}
	_, err := NewCodec(Config{Executor: exec, Storage: &mocks.MockStorageProvider{}}).Decode(ctx, input)
	_, ok := pkgerrors.As[*pkgerrors.DecodeError](err)
	assert.True(t, ok)
	_, ok = pkgerrors.As[*pkgerrors.FFmpegError](err)
	assert.True(t, ok, "the ffmpeg failure stays in the chain")
}

func TestCodecProbe(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 16000, 16, 2, make([]int, 2*8000))

	meta, err := NewCodec(Config{}).Probe(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 16000, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, 16, meta.BitDepth)
	assert.Equal(t, 8000, meta.Samples)
	assert.Equal(t, 500*time.Millisecond, meta.Duration)
	assert.Equal(t, "pcm_s16le", meta.Codec)
	assert.Equal(t, "wav", meta.Format)
	assert.Positive(t, meta.Size)
}
