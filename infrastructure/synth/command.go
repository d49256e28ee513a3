// Package synth runs the external face animation and lip-sync models as
// command-line programs inside their own checkouts.
package synth

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Skryldev/talkinghead/domain/ports"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultInterpreter = "python"
	defaultScript      = "inference.py"
)

// CommandConfig locates one collaborator
type CommandConfig struct {
	// Dir is the collaborator checkout; every run uses it as working directory
	Dir string

	// Interpreter runs Script (default: python)
	Interpreter string

	// Script is the inference entry point relative to Dir (default: inference.py)
	Script string

	Storage ports.StorageProvider
	Logger  *logger.Logger
}

type runner struct {
	name string
	cfg  CommandConfig
	log  *logger.Logger
}

func newRunner(name string, cfg CommandConfig) (*runner, error) {
	if cfg.Dir == "" {
		return nil, pkgerrors.NewValidationError(name+".dir", "", "collaborator directory must be set")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil || !info.IsDir() {
		return nil, pkgerrors.NewValidationError(name+".dir", cfg.Dir, "collaborator directory not found")
	}
	if cfg.Storage == nil {
		return nil, pkgerrors.NewValidationError(name+".storage", nil, "storage provider is required")
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, pkgerrors.NewValidationError(name+".dir", cfg.Dir, err.Error())
	}
	cfg.Dir = dir
	if cfg.Interpreter == "" {
		cfg.Interpreter = defaultInterpreter
	}
	if cfg.Script == "" {
		cfg.Script = defaultScript
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &runner{name: name, cfg: cfg, log: log.Named(name)}, nil
}

// run executes the script with args. Paths in args must be absolute because
// the working directory is the collaborator checkout.
func (r *runner) run(ctx context.Context, args []string) error {
	full := append([]string{r.cfg.Script}, args...)
	cmd := exec.CommandContext(ctx, r.cfg.Interpreter, full...)
	cmd.Dir = r.cfg.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.log.Info("running collaborator",
		zap.String("dir", r.cfg.Dir),
		zap.Strings("args", full),
	)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return pkgerrors.NewSynthesisError(r.name, "collaborator run failed", full, exitCode, stderr.String(), err)
	}
	return nil
}

func absPaths(paths ...*string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}
