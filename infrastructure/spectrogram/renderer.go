// Package spectrogram renders original vs processed spectrogram comparisons
// as PNG images.
package spectrogram

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/pkg/dsp"
	pkgerrors "github.com/Skryldev/talkinghead/pkg/errors"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config controls the image layout and analysis
type Config struct {
	PanelWidth  int     // default: 800
	PanelHeight int     // default: 400
	Gap         int     // pixels between panels, default: 16
	MinHz       float64 // bottom of the log frequency axis, default: 20
	TopDB       float64 // dynamic range shown, default: 80
	Logger      *logger.Logger
}

// Renderer implements ports.Visualizer
type Renderer struct {
	cfg     Config
	palette [256]color.RGBA
	log     *logger.Logger
}

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	cutoffLine = color.RGBA{R: 230, G: 20, B: 20, A: 255}

	// dark to bright, perceptually ordered
	paletteStops = []string{"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}
)

const dashLength = 8

// NewRenderer creates a spectrogram renderer
func NewRenderer(cfg Config) *Renderer {
	if cfg.PanelWidth <= 0 {
		cfg.PanelWidth = 800
	}
	if cfg.PanelHeight <= 0 {
		cfg.PanelHeight = 400
	}
	if cfg.Gap < 0 {
		cfg.Gap = 0
	} else if cfg.Gap == 0 {
		cfg.Gap = 16
	}
	if cfg.MinHz <= 0 {
		cfg.MinHz = 20
	}
	if cfg.TopDB <= 0 {
		cfg.TopDB = 80
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := &Renderer{cfg: cfg, log: log}
	r.palette = buildPalette(paletteStops)
	return r
}

func buildPalette(stops []string) [256]color.RGBA {
	colors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			panic(err)
		}
		colors[i] = c
	}

	var lut [256]color.RGBA
	segments := float64(len(colors) - 1)
	for i := range lut {
		pos := float64(i) / 255 * segments
		k := min(int(pos), len(colors)-2)
		c := colors[k].BlendLab(colors[k+1], pos-float64(k)).Clamped()
		r, g, b := c.RGB255()
		lut[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return lut
}

// Render writes the two-panel comparison to req.OutputPath. The left panel
// shows the original with dashed lines at the band cutoffs.
func (r *Renderer) Render(ctx context.Context, req model.SpectrogramRequest) (err error) {
	if req.Original == nil || req.Processed == nil {
		return pkgerrors.NewValidationError("signals", nil, "both signals are required")
	}
	if req.OutputPath == "" {
		return pkgerrors.NewValidationError("outputPath", "", "output path must not be empty")
	}

	w, h := r.cfg.PanelWidth, r.cfg.PanelHeight
	img := image.NewRGBA(image.Rect(0, 0, 2*w+r.cfg.Gap, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = background.R, background.G, background.B, background.A
	}

	r.drawPanel(img, 0, req.Original)
	if err := ctx.Err(); err != nil {
		return err
	}
	r.drawPanel(img, w+r.cfg.Gap, req.Processed)

	nyquist := float64(req.Original.SampleRate) / 2
	for _, hz := range []float64{req.LowHz, req.HighHz} {
		if hz > 0 {
			r.drawCutoff(img, r.row(hz, nyquist))
		}
	}

	f, err := os.Create(req.OutputPath)
	if err != nil {
		return pkgerrors.NewWriteError(req.OutputPath, "failed to create spectrogram file", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := png.Encode(f, img); err != nil {
		return pkgerrors.NewWriteError(req.OutputPath, "failed to encode spectrogram", err)
	}

	r.log.Debug("spectrogram written", zap.String("path", req.OutputPath))
	return nil
}

func (r *Renderer) drawPanel(img *image.RGBA, left int, sig *model.Signal) {
	w, h := r.cfg.PanelWidth, r.cfg.PanelHeight
	if sig.SampleRate <= 0 || sig.Len() == 0 {
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				img.SetRGBA(left+x, y, r.palette[0])
			}
		}
		return
	}

	power := dsp.STFT(sig.Samples, sig.SampleRate, dsp.FrameLength, dsp.HopLength, true)
	db := dsp.PowerToDB(power.Power, 1e-10, r.cfg.TopDB)

	peak := math.Inf(-1)
	for _, row := range db {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}

	nyquist := float64(sig.SampleRate) / 2
	binHz := float64(sig.SampleRate) / float64(power.NFFT)
	bins := make([]int, h)
	for y := range bins {
		bins[y] = min(int(math.Round(r.frequency(y, nyquist)/binHz)), power.Bins()-1)
	}

	frames := len(db)
	for x := 0; x < w; x++ {
		frame := db[min(x*frames/w, frames-1)]
		for y := 0; y < h; y++ {
			level := 1 + (frame[bins[y]]-peak)/r.cfg.TopDB
			idx := int(math.Round(math.Max(0, math.Min(1, level)) * 255))
			img.SetRGBA(left+x, y, r.palette[idx])
		}
	}
}

// frequency maps a pixel row (0 at the top) to Hz on a log axis
func (r *Renderer) frequency(y int, nyquist float64) float64 {
	h := r.cfg.PanelHeight
	frac := float64(h-1-y) / float64(max(h-1, 1))
	return r.cfg.MinHz * math.Pow(nyquist/r.cfg.MinHz, frac)
}

// row is the inverse of frequency, clamped to the panel
func (r *Renderer) row(hz, nyquist float64) int {
	h := r.cfg.PanelHeight
	hz = math.Max(r.cfg.MinHz, math.Min(hz, nyquist))
	frac := math.Log(hz/r.cfg.MinHz) / math.Log(nyquist/r.cfg.MinHz)
	return h - 1 - int(math.Round(frac*float64(h-1)))
}

func (r *Renderer) drawCutoff(img *image.RGBA, y int) {
	for x := 0; x < r.cfg.PanelWidth; x++ {
		if (x/dashLength)%2 != 0 {
			continue
		}
		img.SetRGBA(x, y, cutoffLine)
		if y+1 < r.cfg.PanelHeight {
			img.SetRGBA(x, y+1, cutoffLine)
		}
	}
}
