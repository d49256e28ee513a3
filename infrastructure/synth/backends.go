package synth

import (
	"context"
	"path/filepath"

	"github.com/Skryldev/talkinghead/domain/model"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"go.uber.org/zap"
)

// LipSyncCheckpoint is the model weight file, relative to the lip-sync checkout
var LipSyncCheckpoint = filepath.Join("checkpoints", "Wav2Lip-SD-GAN.pt")

// Animator drives a still face image with audio and writes a video into a
// result directory. It implements ports.SynthesisBackend.
type Animator struct {
	*runner
}

// NewAnimator validates the animator checkout
func NewAnimator(cfg CommandConfig) (*Animator, error) {
	r, err := newRunner("animator", cfg)
	if err != nil {
		return nil, err
	}
	return &Animator{runner: r}, nil
}

// Run animates req.ImagePath with req.AudioPath into req.OutputDir and
// returns the newest video found there. Videos left in the directory by an
// earlier run are removed first.
func (a *Animator) Run(ctx context.Context, req model.SynthesisRequest) (string, error) {
	switch {
	case req.AudioPath == "":
		return "", pkgerrors.NewValidationError("audioPath", "", "driving audio must be set")
	case req.ImagePath == "":
		return "", pkgerrors.NewValidationError("imagePath", "", "source image must be set")
	case req.OutputDir == "":
		return "", pkgerrors.NewValidationError("outputDir", "", "result directory must be set")
	}
	if err := absPaths(&req.AudioPath, &req.ImagePath, &req.OutputDir); err != nil {
		return "", pkgerrors.NewValidationError("paths", req, err.Error())
	}

	storage := a.cfg.Storage
	if err := storage.MkdirAll(ctx, req.OutputDir); err != nil {
		return "", pkgerrors.NewWriteError(req.OutputDir, "failed to create result directory", err)
	}
	if err := a.clearVideos(ctx, req.OutputDir); err != nil {
		return "", err
	}

	err := a.run(ctx, []string{
		"--driven_audio", req.AudioPath,
		"--source_image", req.ImagePath,
		"--result_dir", req.OutputDir,
		"--enhancer", "gfpgan",
	})
	if err != nil {
		return "", err
	}

	video, err := storage.Newest(ctx, req.OutputDir, "*.mp4")
	if err != nil {
		return "", pkgerrors.NewSynthesisError(a.name, "failed to list results", nil, 0, "", err)
	}
	if video == "" {
		return "", pkgerrors.NewSynthesisError(a.name, "no video produced in "+req.OutputDir, nil, 0, "", nil)
	}

	a.log.Info("animation produced", zap.String("video", video))
	return video, nil
}

func (a *Animator) clearVideos(ctx context.Context, dir string) error {
	for {
		stale, err := a.cfg.Storage.Newest(ctx, dir, "*.mp4")
		if err != nil {
			return pkgerrors.NewWriteError(dir, "failed to list stale videos", err)
		}
		if stale == "" {
			return nil
		}
		if err := a.cfg.Storage.Remove(ctx, stale); err != nil {
			return pkgerrors.NewWriteError(stale, "failed to remove stale video", err)
		}
		a.log.Debug("removed stale video", zap.String("video", stale))
	}
}

// LipSync re-synchronizes the mouth region of a face video to an audio track.
// It implements ports.SynthesisBackend.
type LipSync struct {
	*runner
}

// NewLipSync validates the lip-sync checkout
func NewLipSync(cfg CommandConfig) (*LipSync, error) {
	r, err := newRunner("lipsync", cfg)
	if err != nil {
		return nil, err
	}
	return &LipSync{runner: r}, nil
}

// Run writes req.VideoPath re-synced to req.AudioPath at req.OutputPath
func (l *LipSync) Run(ctx context.Context, req model.SynthesisRequest) (string, error) {
	switch {
	case req.AudioPath == "":
		return "", pkgerrors.NewValidationError("audioPath", "", "audio must be set")
	case req.VideoPath == "":
		return "", pkgerrors.NewValidationError("videoPath", "", "face video must be set")
	case req.OutputPath == "":
		return "", pkgerrors.NewValidationError("outputPath", "", "output path must be set")
	}
	if err := absPaths(&req.AudioPath, &req.VideoPath, &req.OutputPath); err != nil {
		return "", pkgerrors.NewValidationError("paths", req, err.Error())
	}

	err := l.run(ctx, []string{
		"--checkpoint_path", filepath.Join(l.cfg.Dir, LipSyncCheckpoint),
		"--face", req.VideoPath,
		"--audio", req.AudioPath,
		"--outfile", req.OutputPath,
	})
	if err != nil {
		return "", err
	}

	exists, err := l.cfg.Storage.Exists(ctx, req.OutputPath)
	if err != nil || !exists {
		return "", pkgerrors.NewSynthesisError(l.name, "no video produced at "+req.OutputPath, nil, 0, "", err)
	}

	l.log.Info("lip-sync produced", zap.String("video", req.OutputPath))
	return req.OutputPath, nil
}
