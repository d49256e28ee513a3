package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("job 7 failed: %w", NewDecodeError("voice.wav", "not a valid WAV file", nil))

	decErr, ok := As[*DecodeError](err)
	require.True(t, ok)
	assert.Equal(t, "voice.wav", decErr.Path)
	assert.Equal(t, ErrCodeDecode, decErr.Code)

	_, ok = As[*WriteError](err)
	assert.False(t, ok)
}

func TestUnwrapReachesCause(t *testing.T) {
	err := NewProcessingError("plosives", "enhancement interrupted", context.Canceled)
	assert.True(t, Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "stage=plosives")
}

func TestErrorMessages(t *testing.T) {
	syn := NewSynthesisError("lipsync", "collaborator run failed", []string{"inference.py"}, 1, "Traceback", errors.New("exit status 1"))
	assert.Contains(t, syn.Error(), "backend=lipsync")
	assert.Contains(t, syn.Error(), "Traceback")
	assert.Contains(t, NewSynthesisError("animator", "no video produced", nil, 0, "", nil).Error(), "[SYNTHESIS_ERROR]")

	val := NewValidationError("clipCeiling", 1.5, "clip ceiling must be within (0, 1]")
	assert.Equal(t, "[VALIDATION_ERROR] field=clipCeiling value=1.5: clip ceiling must be within (0, 1]", val.Error())

	long := NewFFmpegError("ffmpeg execution failed", nil, 1, string(make([]byte, 300)), nil)
	assert.Contains(t, long.Error(), "...")
}
