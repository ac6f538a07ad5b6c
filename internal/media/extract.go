package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"clipflow/internal/binlocate"
	"clipflow/internal/domain"
)

// Extractor converts arbitrary media files into the waveform the
// transcription engine requires: mono, 16 kHz, 16-bit PCM. That
// normalization is an engine input contract, not a quality choice.
type Extractor struct {
	locator *binlocate.Locator
	runner  commandRunner
	stream  streamRunner
}

// NewExtractor constructs an extractor using real process execution.
func NewExtractor(locator *binlocate.Locator) *Extractor {
	return &Extractor{
		locator: locator,
		runner:  &execRunner{},
		stream:  &execStreamRunner{},
	}
}

// Extract transcodes input to a 16 kHz mono PCM WAV at output, reporting
// 0-100 progress derived from ffmpeg's machine-readable progress stream.
// The input duration is probed first; a probe failure fails fast before
// any output file is produced. onProgress runs on the goroutine reading
// the progress stream, not the caller's.
func (e *Extractor) Extract(ctx context.Context, input, output string, onProgress func(float64)) (string, error) {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("extract: %w", domain.ErrInvalidPath)
	}

	duration, err := e.Duration(ctx, input)
	if err != nil {
		return "", err
	}

	ffmpeg, err := e.locator.Locate(binlocate.ToolFFmpeg)
	if err != nil {
		return "", err
	}

	args := []string{
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		"-progress", "pipe:1",
		output,
	}

	runErr := e.stream.RunStream(ctx, func(line string) {
		if percent, ok := parseProgressLine(line, duration); ok && onProgress != nil {
			onProgress(percent)
		}
	}, ffmpeg, args...)
	if runErr != nil {
		return "", &ProcessError{Op: "extract", Err: runErr}
	}

	if onProgress != nil {
		onProgress(100)
	}
	return output, nil
}

// parseProgressLine converts one "out_time_ms=<microseconds>" progress
// line into a percentage of the probed duration, clamped to [0,100].
// Any other line is ignorable noise, never an error.
func parseProgressLine(line string, durationSeconds float64) (float64, bool) {
	value, ok := strings.CutPrefix(strings.TrimSpace(line), "out_time_ms=")
	if !ok || durationSeconds <= 0 {
		return 0, false
	}

	micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}

	percent := float64(micros) / 1e6 / durationSeconds * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

// NewExtractorForTests constructs an extractor with injectable runners.
func NewExtractorForTests(locator *binlocate.Locator, runner commandRunner, stream streamRunner) *Extractor {
	return &Extractor{locator: locator, runner: runner, stream: stream}
}
