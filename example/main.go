package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skryldev/talkinghead"
)

func main() {
	// ── Graceful shutdown via signal ──────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Progress channel ──────────────────────────────────────────────────
	progressCh := make(chan talkinghead.ProgressUpdate, 32)
	go func() {
		for upd := range progressCh {
			fmt.Printf("[%s] stage=%-11s %.0f%%  %s\n",
				upd.JobID[:8], upd.Stage, upd.Percent, upd.Message)
		}
	}()

	// ── Create processor ──────────────────────────────────────────────────
	// Video generation is enabled when both model checkouts are given.
	processor, err := talkinghead.New(talkinghead.Config{
		AnimatorDir: os.Getenv("TALKINGHEAD_ANIMATOR_DIR"),
		LipSyncDir:  os.Getenv("TALKINGHEAD_LIPSYNC_DIR"),
		Workers:     4,
		ProgressCh:  progressCh,
	})
	if err != nil {
		log.Fatalf("failed to create processor: %v", err)
	}
	defer func() {
		close(progressCh)
		processor.Close()
	}()

	// ── Example 1: Enhance driving audio ─────────────────────────────────
	fmt.Println("\n── Example 1: Driving Audio Enhancement ──")
	enhanceExample(ctx, processor)

	// ── Example 2: Batch enhancement ─────────────────────────────────────
	fmt.Println("\n── Example 2: Batch Enhancement ──")
	batchExample(ctx, processor)

	// ── Example 3: Probe audio ───────────────────────────────────────────
	fmt.Println("\n── Example 3: Probe Audio ──")
	probeExample(ctx, processor)

	// ── Example 4: Talking-head video ────────────────────────────────────
	fmt.Println("\n── Example 4: Talking-Head Video ──")
	videoExample(ctx, processor)
}

func inputAudio() string {
	if p := os.Getenv("TALKINGHEAD_INPUT"); p != "" {
		return p
	}
	return "/tmp/speech.wav"
}

func enhanceExample(ctx context.Context, p *talkinghead.Processor) {
	result, err := p.ProcessAudio(ctx, inputAudio(), "/tmp/speech_enhanced.wav",
		talkinghead.WithBandpass(80, 12000),
		talkinghead.WithEnhancementFactor(1.5),
		talkinghead.WithLeadAdvance(20*time.Millisecond),
		talkinghead.WithVisualization(true),
	)
	if err != nil {
		fmt.Printf("enhancement failed: %v\n", err)
		return
	}

	fmt.Printf("Done! took=%s output=%s\n", result.Duration, result.OutputPath)
	fmt.Printf("Band: %.0f-%.0f Hz (clamped=%t)\n", result.Band.LowHz, result.Band.HighHz, result.BandClamped)
	fmt.Printf("Plosives: %d  onsets: %d  shift: %d samples\n",
		len(result.Events), result.Onsets, result.ShiftSamples)
	if result.SpectrogramPath != "" {
		fmt.Printf("Spectrogram: %s\n", result.SpectrogramPath)
	}
}

func batchExample(ctx context.Context, p *talkinghead.Processor) {
	gentle := talkinghead.DefaultEnhancementOptions()
	gentle.EnhancementFactor = 1.1

	jobs := []talkinghead.BatchJob{
		{
			ID:         "take-001",
			InputPath:  "/tmp/take1.wav",
			OutputPath: "/tmp/take1_enhanced.wav",
			Options:    nil, // will use defaults
		},
		{
			ID:         "take-002",
			InputPath:  "/tmp/take2.wav",
			OutputPath: "/tmp/take2_enhanced.wav",
			Options:    gentle,
		},
	}

	resultsCh, err := p.ProcessBatch(ctx, jobs)
	if err != nil {
		fmt.Printf("batch failed to start: %v\n", err)
		return
	}

	successCount := 0
	for res := range resultsCh {
		if res.Err != nil {
			fmt.Printf("[%s] FAILED: %v\n", res.JobID, res.Err)
			continue
		}
		successCount++
		fmt.Printf("[%s] OK took=%s plosives=%d\n", res.JobID, res.Result.Duration, len(res.Result.Events))
	}

	fmt.Printf("Batch complete: %d/%d succeeded\n", successCount, len(jobs))
}

func probeExample(ctx context.Context, p *talkinghead.Processor) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	meta, err := p.ProbeAudio(probeCtx, inputAudio())
	if err != nil {
		fmt.Printf("probe failed: %v\n", err)
		return
	}

	fmt.Printf("Probe result:\n")
	fmt.Printf("  Duration  : %s\n", meta.Duration)
	fmt.Printf("  Codec     : %s\n", meta.Codec)
	fmt.Printf("  SampleRate: %d Hz\n", meta.SampleRate)
	fmt.Printf("  Channels  : %d\n", meta.Channels)
	fmt.Printf("  BitDepth  : %d\n", meta.BitDepth)
	fmt.Printf("  Samples   : %d\n", meta.Samples)
	fmt.Printf("  Size      : %d bytes\n", meta.Size)
}

func videoExample(ctx context.Context, p *talkinghead.Processor) {
	result, err := p.GenerateVideo(ctx, talkinghead.VideoJob{
		SourceImage:    "/tmp/face.png",
		DrivenAudio:    inputAudio(),
		OutputDir:      "/tmp/talkinghead",
		VisualizeAudio: true,
	})
	if err != nil {
		fmt.Printf("video generation failed: %v\n", err)
		return
	}

	fmt.Printf("Done! took=%s\n", result.Duration)
	fmt.Printf("  Driving audio: %s\n", result.DrivenAudio)
	fmt.Printf("  Animation    : %s\n", result.AnimatedVideo)
	fmt.Printf("  Lip-sync     : %s\n", result.LipSyncVideo)
	fmt.Printf("  Final        : %s\n", result.FinalVideo)
}
