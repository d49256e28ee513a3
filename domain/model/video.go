package model

import "time"

// SynthesisRequest carries the file paths handed to an external synthesis backend.
// Each backend reads the fields it needs.
type SynthesisRequest struct {
	AudioPath  string
	ImagePath  string // source face image (animation)
	VideoPath  string // face video to re-sync (lip-sync)
	OutputDir  string // directory the backend writes into (animation)
	OutputPath string // exact file the backend must produce (lip-sync)
}

// VideoJob describes one talking-head generation
type VideoJob struct {
	SourceImage string
	DrivenAudio string
	OutputDir   string

	SkipAudioProcessing bool
	VisualizeAudio      bool
	SkipPostProcessing  bool

	// Audio overrides the enhancement defaults when set
	Audio *EnhancementOptions
}

// VideoResult lists every artifact produced by a generation
type VideoResult struct {
	DrivenAudio   string // audio that drove the animation (enhanced or original)
	OriginalAudio string // audio handed to lip-sync
	Enhancement   *ProcessingResult
	AnimatedVideo string
	LipSyncVideo  string
	FinalVideo    string
	Duration      time.Duration
}
