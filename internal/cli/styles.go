package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4") // Talkinghead violet
	accentColor  = lipgloss.Color("#F25D94")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
	okColor      = lipgloss.Color("#04B575")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	StageStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Width(12)

	DoneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(okColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Talkinghead 🗣"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintProgress prints one pipeline progress line
func PrintProgress(w io.Writer, stage string, percent float64, message string) {
	fmt.Fprintf(w, "%s %3.0f%%  %s\n", StageStyle.Render(stage), percent, message)
}

// PrintEnhancement summarizes an audio enhancement run
func PrintEnhancement(w io.Writer, res *model.ProcessingResult) {
	fmt.Fprintln(w, DoneStyle.Render("Audio enhanced"))
	printKV(w, "Output", res.OutputPath)
	if res.OutputSize > 0 {
		printKV(w, "Size", fmt.Sprintf("%.1f KiB", float64(res.OutputSize)/1024))
	}
	band := fmt.Sprintf("%.0f-%.0f Hz", res.Band.LowHz, res.Band.HighHz)
	if res.BandClamped {
		band += " (clamped)"
	}
	printKV(w, "Band", band)
	printKV(w, "Plosives", fmt.Sprintf("%d", len(res.Events)))
	printKV(w, "Onsets", fmt.Sprintf("%d", res.Onsets))
	printKV(w, "Shift", fmt.Sprintf("%d samples", res.ShiftSamples))
	if res.NormalizationScale != 1 {
		printKV(w, "Normalized", fmt.Sprintf("x%.3f", res.NormalizationScale))
	}
	if res.SpectrogramPath != "" {
		printKV(w, "Spectrogram", res.SpectrogramPath)
	}
	printKV(w, "Took", res.Duration.Round(time.Millisecond).String())
	fmt.Fprintln(w)
}

// PrintVideo summarizes a talking-head generation
func PrintVideo(w io.Writer, res *model.VideoResult) {
	if res.Enhancement != nil {
		PrintEnhancement(w, res.Enhancement)
	}
	fmt.Fprintln(w, DoneStyle.Render("Video ready"))
	printKV(w, "Animation", res.AnimatedVideo)
	printKV(w, "Lip-sync", res.LipSyncVideo)
	printKV(w, "Final", res.FinalVideo)
	printKV(w, "Took", res.Duration.Round(time.Millisecond).String())
	fmt.Fprintln(w)
}

func printKV(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}
