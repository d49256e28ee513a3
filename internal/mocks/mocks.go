// Package mocks provides hand-written test doubles for the domain ports.
package mocks

import (
	"context"
	"sync"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/domain/ports"
)

// MockFFmpegExecutor is a test double for ports.FFmpegExecutor
type MockFFmpegExecutor struct {
	ExecuteFunc func(ctx context.Context, args []string) error

	mu           sync.Mutex
	ExecutedArgs [][]string
}

func (m *MockFFmpegExecutor) Execute(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return nil
}

// Calls returns a snapshot of the recorded argument lists
func (m *MockFFmpegExecutor) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.ExecutedArgs...)
}

// MockStorageProvider is a test double for ports.StorageProvider
type MockStorageProvider struct {
	ExistsFunc   func(ctx context.Context, path string) (bool, error)
	SizeFunc     func(ctx context.Context, path string) (int64, error)
	RemoveFunc   func(ctx context.Context, path string) error
	TempFileFunc func(ctx context.Context, dir, pattern string) (string, error)
	RenameFunc   func(ctx context.Context, from, to string) error
	MkdirAllFunc func(ctx context.Context, dir string) error
	NewestFunc   func(ctx context.Context, dir, pattern string) (string, error)

	mu      sync.Mutex
	Removed []string
	Renamed [][2]string
}

func (m *MockStorageProvider) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockStorageProvider) Size(ctx context.Context, path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(ctx, path)
	}
	return 1024, nil
}

func (m *MockStorageProvider) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, path)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}
	return nil
}

func (m *MockStorageProvider) TempFile(ctx context.Context, dir, pattern string) (string, error) {
	if m.TempFileFunc != nil {
		return m.TempFileFunc(ctx, dir, pattern)
	}
	return "/tmp/mock_temp_file", nil
}

func (m *MockStorageProvider) Rename(ctx context.Context, from, to string) error {
	m.mu.Lock()
	m.Renamed = append(m.Renamed, [2]string{from, to})
	m.mu.Unlock()
	if m.RenameFunc != nil {
		return m.RenameFunc(ctx, from, to)
	}
	return nil
}

func (m *MockStorageProvider) MkdirAll(ctx context.Context, dir string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(ctx, dir)
	}
	return nil
}

func (m *MockStorageProvider) Newest(ctx context.Context, dir, pattern string) (string, error) {
	if m.NewestFunc != nil {
		return m.NewestFunc(ctx, dir, pattern)
	}
	return "", nil
}

// MockSignalCodec is a test double for ports.SignalCodec. Without DecodeFunc
// it returns a copy of Signal; Encode records what it was given.
type MockSignalCodec struct {
	Signal     *model.Signal
	DecodeFunc func(ctx context.Context, path string) (*model.Signal, error)
	EncodeFunc func(ctx context.Context, path string, sig *model.Signal) error
	ProbeFunc  func(ctx context.Context, path string) (*model.AudioMetadata, error)

	mu      sync.Mutex
	Encoded map[string]*model.Signal
}

func (m *MockSignalCodec) Decode(ctx context.Context, path string) (*model.Signal, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(ctx, path)
	}
	if m.Signal == nil {
		return &model.Signal{SampleRate: 16000}, nil
	}
	return m.Signal.Clone(), nil
}

func (m *MockSignalCodec) Encode(ctx context.Context, path string, sig *model.Signal) error {
	if m.EncodeFunc != nil {
		if err := m.EncodeFunc(ctx, path, sig); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Encoded == nil {
		m.Encoded = make(map[string]*model.Signal)
	}
	m.Encoded[path] = sig.Clone()
	return nil
}

func (m *MockSignalCodec) Probe(ctx context.Context, path string) (*model.AudioMetadata, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return &model.AudioMetadata{SampleRate: 16000, Channels: 1, BitDepth: 16, Codec: "pcm_s16le", Format: "wav"}, nil
}

// Written returns the signal encoded to path, or nil
func (m *MockSignalCodec) Written(path string) *model.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Encoded[path]
}

// MockSynthesisBackend is a test double for ports.SynthesisBackend
type MockSynthesisBackend struct {
	RunFunc func(ctx context.Context, req model.SynthesisRequest) (string, error)

	mu       sync.Mutex
	Requests []model.SynthesisRequest
}

func (m *MockSynthesisBackend) Run(ctx context.Context, req model.SynthesisRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	if req.OutputPath != "" {
		return req.OutputPath, nil
	}
	return req.OutputDir + "/result.mp4", nil
}

// MockVisualizer is a test double for ports.Visualizer
type MockVisualizer struct {
	RenderFunc func(ctx context.Context, req model.SpectrogramRequest) error

	mu       sync.Mutex
	Requests []model.SpectrogramRequest
}

func (m *MockVisualizer) Render(ctx context.Context, req model.SpectrogramRequest) error {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, req)
	}
	return nil
}

// MockAudioProcessor is a test double for ports.AudioProcessor. Without
// ProcessFunc it applies the options and echoes the paths back.
type MockAudioProcessor struct {
	ProcessFunc func(ctx context.Context, inputPath, outputPath string, opts *model.EnhancementOptions) (*model.ProcessingResult, error)

	mu      sync.Mutex
	Options []*model.EnhancementOptions
}

func (m *MockAudioProcessor) ProcessAudio(ctx context.Context, inputPath, outputPath string, opts ...ports.Option) (*model.ProcessingResult, error) {
	options := model.DefaultEnhancementOptions()
	for _, o := range opts {
		o(options)
	}
	m.mu.Lock()
	m.Options = append(m.Options, options)
	m.mu.Unlock()
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, inputPath, outputPath, options)
	}
	return &model.ProcessingResult{InputPath: inputPath, OutputPath: outputPath}, nil
}

func (m *MockAudioProcessor) ProcessBatch(_ context.Context, jobs []model.BatchJob) (<-chan model.BatchResult, error) {
	ch := make(chan model.BatchResult, len(jobs))
	for _, j := range jobs {
		ch <- model.BatchResult{JobID: j.ID, Result: &model.ProcessingResult{InputPath: j.InputPath, OutputPath: j.OutputPath}}
	}
	close(ch)
	return ch, nil
}

func (m *MockAudioProcessor) ProbeAudio(_ context.Context, _ string) (*model.AudioMetadata, error) {
	return &model.AudioMetadata{SampleRate: 16000, Channels: 1}, nil
}
