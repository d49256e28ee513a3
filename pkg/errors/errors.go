package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors
type ErrorCode string

const (
	ErrCodeProcessing ErrorCode = "PROCESSING_ERROR"
	ErrCodeFFmpeg     ErrorCode = "FFMPEG_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeDecode     ErrorCode = "DECODE_ERROR"
	ErrCodeIO         ErrorCode = "IO_ERROR"
	ErrCodeSynthesis  ErrorCode = "SYNTHESIS_ERROR"
)

// TalkingHeadError is the base structured error
type TalkingHeadError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Fields  map[string]interface{}
}

func (e *TalkingHeadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TalkingHeadError) Unwrap() error {
	return e.Cause
}

// ProcessingError represents a general pipeline failure
type ProcessingError struct {
	TalkingHeadError
	Stage string
}

func NewProcessingError(stage, message string, cause error) *ProcessingError {
	return &ProcessingError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeProcessing,
			Message: message,
			Cause:   cause,
		},
		Stage: stage,
	}
}

func (e *ProcessingError) Error() string {
	base := e.TalkingHeadError.Error()
	return fmt.Sprintf("%s (stage=%s)", base, e.Stage)
}

// DecodeError means the input audio could not be read or decoded
type DecodeError struct {
	TalkingHeadError
	Path string
}

func NewDecodeError(path, message string, cause error) *DecodeError {
	return &DecodeError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeDecode,
			Message: message,
			Cause:   cause,
		},
		Path: path,
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (path=%s)", e.TalkingHeadError.Error(), e.Path)
}

// WriteError means an output could not be written to its destination
type WriteError struct {
	TalkingHeadError
	Path string
}

func NewWriteError(path, message string, cause error) *WriteError {
	return &WriteError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeIO,
			Message: message,
			Cause:   cause,
		},
		Path: path,
	}
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s (path=%s)", e.TalkingHeadError.Error(), e.Path)
}

// FFmpegError represents an FFmpeg execution failure
type FFmpegError struct {
	TalkingHeadError
	Args     []string
	ExitCode int
	Stderr   string
}

func NewFFmpegError(message string, args []string, exitCode int, stderr string, cause error) *FFmpegError {
	return &FFmpegError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeFFmpeg,
			Message: message,
			Cause:   cause,
		},
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("[%s] %s (exit=%d, stderr=%q): %v",
		e.Code, e.Message, e.ExitCode, truncate(e.Stderr, 200), e.Cause)
}

// SynthesisError represents a failed external synthesis backend run
type SynthesisError struct {
	TalkingHeadError
	Backend  string
	Args     []string
	ExitCode int
	Stderr   string
}

func NewSynthesisError(backend, message string, args []string, exitCode int, stderr string, cause error) *SynthesisError {
	return &SynthesisError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeSynthesis,
			Message: message,
			Cause:   cause,
		},
		Backend:  backend,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

func (e *SynthesisError) Error() string {
	if e.ExitCode == 0 && e.Stderr == "" {
		return fmt.Sprintf("%s (backend=%s)", e.TalkingHeadError.Error(), e.Backend)
	}
	return fmt.Sprintf("[%s] %s (backend=%s, exit=%d, stderr=%q): %v",
		e.Code, e.Message, e.Backend, e.ExitCode, truncate(e.Stderr, 200), e.Cause)
}

// ValidationError represents input validation failure
type ValidationError struct {
	TalkingHeadError
	Field string
	Value interface{}
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		TalkingHeadError: TalkingHeadError{
			Code:    ErrCodeValidation,
			Message: message,
		},
		Field: field,
		Value: value,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] field=%s value=%v: %s", e.Code, e.Field, e.Value, e.Message)
}

// Is enables errors.Is checks
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As enables errors.As checks
func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
