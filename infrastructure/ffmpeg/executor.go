package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"go.uber.org/zap"
)

// Executor implements ports.FFmpegExecutor
type Executor struct {
	ffmpegPath string
	log        *logger.Logger
}

// ExecutorConfig holds configuration for the FFmpeg executor
type ExecutorConfig struct {
	FFmpegPath string
	Logger     *logger.Logger
}

// NewExecutor creates a new FFmpeg executor
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Executor{
		ffmpegPath: ffmpegPath,
		log:        log,
	}, nil
}

// Execute runs ffmpeg with the given arguments
func (e *Executor) Execute(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Debug("executing ffmpeg",
		zap.Strings("args", args),
	)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return pkgerrors.NewFFmpegError(
			"ffmpeg execution failed",
			args,
			exitCode,
			stderr.String(),
			err,
		)
	}

	return nil
}

// TranscodeArgs returns the arguments that convert any audio input to 16-bit
// PCM WAV, keeping its sample rate and channel layout.
func TranscodeArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-vn", "-acodec", "pcm_s16le", "-f", "wav", output}
}

// PostProcessArgs returns the arguments that run input through the video
// filter chain and write output.
func PostProcessArgs(input, output string, filters *FilterChainBuilder) []string {
	args := []string{"-y", "-i", input}
	if !filters.IsEmpty() {
		args = append(args, "-filter:v", filters.Build())
	}
	return append(args, output)
}

// FilterChainBuilder constructs an ffmpeg video filter string
type FilterChainBuilder struct {
	filters []string
}

func NewFilterChainBuilder() *FilterChainBuilder {
	return &FilterChainBuilder{}
}

// AddMinterpolate adds motion-compensated frame interpolation up to fps
func (b *FilterChainBuilder) AddMinterpolate(fps int) *FilterChainBuilder {
	b.filters = append(b.filters, fmt.Sprintf("minterpolate=fps=%d", fps))
	return b
}

// AddScale resizes frames with the given scaler (lanczos, bicubic, ...)
func (b *FilterChainBuilder) AddScale(width, height int, flags string) *FilterChainBuilder {
	filter := fmt.Sprintf("scale=%d:%d", width, height)
	if flags != "" {
		filter += ":flags=" + flags
	}
	b.filters = append(b.filters, filter)
	return b
}

func (b *FilterChainBuilder) Build() string {
	return strings.Join(b.filters, ",")
}

func (b *FilterChainBuilder) IsEmpty() bool {
	return len(b.filters) == 0
}
