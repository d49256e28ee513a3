package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Skryldev/talkinghead"
	"github.com/Skryldev/talkinghead/internal/cli"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/alecthomas/kong"
)

var (
	version = "0.1.0"
)

// AudioFlags tune the driving-audio enhancement
type AudioFlags struct {
	LowCutoff    float64       `help:"Speech band low cutoff in Hz." default:"50" env:"TALKINGHEAD_LOW_CUTOFF"`
	HighCutoff   float64       `help:"Speech band high cutoff in Hz, clamped below Nyquist." default:"14000" env:"TALKINGHEAD_HIGH_CUTOFF"`
	FilterOrder  int           `help:"Butterworth order of the speech band filter." default:"8"`
	Factor       float64       `help:"High-band blend strength around plosives." default:"1.2" env:"TALKINGHEAD_ENHANCEMENT_FACTOR"`
	Percentile   float64       `help:"Plosive score percentile threshold (0-100)." default:"96"`
	MinSpacing   time.Duration `help:"Minimum distance between plosives." default:"80ms"`
	Lead         time.Duration `help:"How far the audio is moved ahead of the video." default:"20ms" env:"TALKINGHEAD_LEAD"`
	ClipCeiling  float64       `help:"Output peak ceiling." default:"0.95"`
	AudioTimeout time.Duration `help:"Upper bound for one enhancement run." default:"5m"`
}

func (f AudioFlags) options() *talkinghead.EnhancementOptions {
	opts := talkinghead.DefaultEnhancementOptions()
	for _, o := range []talkinghead.Option{
		talkinghead.WithBandpass(f.LowCutoff, f.HighCutoff),
		talkinghead.WithFilterOrder(f.FilterOrder),
		talkinghead.WithEnhancementFactor(f.Factor),
		talkinghead.WithPercentileThreshold(f.Percentile),
		talkinghead.WithMinEventSeparation(f.MinSpacing),
		talkinghead.WithLeadAdvance(f.Lead),
		talkinghead.WithClipCeiling(f.ClipCeiling),
		talkinghead.WithTimeout(f.AudioTimeout),
	} {
		o(opts)
	}
	return opts
}

// RunCmd generates a talking-head video
type RunCmd struct {
	Image string `arg:"" name:"image" help:"Source face image." type:"existingfile"`
	Audio string `arg:"" name:"audio" help:"Driving speech recording." type:"existingfile"`

	Output      string `short:"o" help:"Output directory." default:"results" type:"path" env:"TALKINGHEAD_OUTPUT"`
	AnimatorDir string `help:"Face animation model checkout." required:"" type:"existingdir" env:"TALKINGHEAD_ANIMATOR_DIR"`
	LipSyncDir  string `help:"Lip-sync model checkout." required:"" type:"existingdir" env:"TALKINGHEAD_LIPSYNC_DIR"`
	Python      string `help:"Interpreter for the model scripts." default:"python" env:"TALKINGHEAD_PYTHON"`

	SkipAudioProcessing bool `help:"Drive the animation with the original audio."`
	VisualizeAudio      bool `help:"Write a spectrogram comparison of the enhanced audio."`
	SkipPostProcessing  bool `help:"Skip frame interpolation and upscaling."`

	AudioFlags `embed:""`
}

// Run executes the run command
func (c *RunCmd) Run(g *Globals) error {
	p, err := talkinghead.New(talkinghead.Config{
		FFmpegPath:  g.FFmpeg,
		AnimatorDir: c.AnimatorDir,
		LipSyncDir:  c.LipSyncDir,
		Interpreter: c.Python,
		Logger:      g.log,
		ProgressCh:  g.progress(),
	})
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.GenerateVideo(g.ctx, talkinghead.VideoJob{
		SourceImage:         c.Image,
		DrivenAudio:         c.Audio,
		OutputDir:           c.Output,
		SkipAudioProcessing: c.SkipAudioProcessing,
		VisualizeAudio:      c.VisualizeAudio,
		SkipPostProcessing:  c.SkipPostProcessing,
		Audio:               c.options(),
	})
	g.wait()
	if err != nil {
		return err
	}

	cli.PrintVideo(os.Stdout, res)
	return nil
}

// EnhanceCmd enhances driving audio only
type EnhanceCmd struct {
	Inputs    []string `arg:"" name:"audio" help:"Speech recordings to enhance." type:"existingfile"`
	Output    string   `short:"o" help:"Output directory (default: next to each input)." type:"path"`
	Visualize bool     `help:"Write a spectrogram comparison next to each output."`
	Workers   int      `short:"j" help:"Files processed concurrently." default:"4"`

	AudioFlags `embed:""`
}

// Run executes the enhance command
func (c *EnhanceCmd) Run(g *Globals) error {
	p, err := talkinghead.New(talkinghead.Config{
		FFmpegPath: g.FFmpeg,
		Logger:     g.log,
		ProgressCh: g.progress(),
		Workers:    c.Workers,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	opts := c.options()
	opts.Visualize = c.Visualize

	jobs := make([]talkinghead.BatchJob, len(c.Inputs))
	for i, in := range c.Inputs {
		jobs[i] = talkinghead.BatchJob{
			InputPath:  in,
			OutputPath: enhancedPath(in, c.Output),
			Options:    opts,
		}
	}

	results, err := p.ProcessBatch(g.ctx, jobs)
	if err != nil {
		return err
	}

	var failed int
	for res := range results {
		if res.Err != nil {
			failed++
			cli.PrintError(res.Err.Error())
			continue
		}
		cli.PrintEnhancement(os.Stdout, res.Result)
	}
	g.wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobs))
	}
	return nil
}

// enhancedPath places <name>_enhanced.wav in dir, or next to the input
func enhancedPath(input, dir string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"_enhanced.wav")
}

// Globals are shared by every command
type Globals struct {
	Version kong.VersionFlag `short:"v" help:"Show version information."`
	Debug   bool             `help:"Human-readable debug logging." env:"TALKINGHEAD_DEBUG"`
	FFmpeg  string           `help:"Path to the ffmpeg binary (default: from PATH)." env:"TALKINGHEAD_FFMPEG"`
	Quiet   bool             `short:"q" help:"Hide stage progress."`

	ctx     context.Context
	log     *logger.Logger
	updates chan talkinghead.ProgressUpdate
	done    chan struct{}
}

// progress starts the console progress printer, or returns nil when quiet
func (g *Globals) progress() chan<- talkinghead.ProgressUpdate {
	if g.Quiet {
		return nil
	}
	g.updates = make(chan talkinghead.ProgressUpdate, 64)
	g.done = make(chan struct{})
	go func() {
		defer close(g.done)
		for upd := range g.updates {
			cli.PrintProgress(os.Stderr, string(upd.Stage), upd.Percent, upd.Message)
		}
	}()
	return g.updates
}

// wait drains the progress printer
func (g *Globals) wait() {
	if g.updates == nil {
		return
	}
	close(g.updates)
	<-g.done
	g.updates = nil
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" help:"Generate a talking-head video from a face image and speech."`
	Enhance EnhanceCmd `cmd:"" help:"Enhance speech recordings for use as driving audio."`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("talkinghead"),
		kong.Description("Talking-head video generation with speech-tuned driving audio"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	log, err := logger.New(cliArgs.Debug)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliArgs.Globals.ctx = sigCtx
	cliArgs.Globals.log = log

	if err := ctx.Run(&cliArgs.Globals); err != nil {
		cli.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
