package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"clipflow/internal/binlocate"
	"clipflow/internal/domain"
)

// ProcessError reports a failed media tool invocation.
type ProcessError struct {
	Op     string
	Err    error
	Stderr string
}

// Error describes the failed operation with trimmed tool output.
func (e *ProcessError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if len(detail) > 300 {
		detail = detail[:300] + "..."
	}
	if detail == "" {
		return fmt.Sprintf("media %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("media %s failed: %v (%s)", e.Op, e.Err, detail)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// probePayload mirrors the ffprobe -print_format json output shape.
type probePayload struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe queries container format, duration, and stream presence without
// transcoding. Computed on demand; nothing is cached.
func (e *Extractor) Probe(ctx context.Context, path string) (domain.MediaProbe, error) {
	if strings.TrimSpace(path) == "" {
		return domain.MediaProbe{}, fmt.Errorf("probe: %w", domain.ErrInvalidPath)
	}

	ffprobe, err := e.locator.Locate(binlocate.ToolFFprobe)
	if err != nil {
		return domain.MediaProbe{}, err
	}

	result, runErr := e.runner.Run(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if runErr != nil {
		return domain.MediaProbe{}, &ProcessError{Op: "probe", Err: runErr, Stderr: result.Stderr}
	}

	var payload probePayload
	if err := json.Unmarshal([]byte(result.Stdout), &payload); err != nil {
		return domain.MediaProbe{}, &ProcessError{Op: "probe", Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	probe := domain.MediaProbe{Format: payload.Format.FormatName}
	if probe.Format == "" {
		probe.Format = "unknown"
	}
	if seconds, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64); err == nil {
		probe.Duration = seconds
	}
	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			probe.HasVideo = true
		case "audio":
			probe.HasAudio = true
		}
	}
	return probe, nil
}

// Duration returns the media duration in seconds via a metadata-only query.
func (e *Extractor) Duration(ctx context.Context, path string) (float64, error) {
	ffprobe, err := e.locator.Locate(binlocate.ToolFFprobe)
	if err != nil {
		return 0, err
	}

	result, runErr := e.runner.Run(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if runErr != nil {
		return 0, &ProcessError{Op: "probe", Err: runErr, Stderr: result.Stderr}
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Stdout), 64)
	if err != nil {
		return 0, &ProcessError{Op: "probe", Err: fmt.Errorf("parse duration %q: %w", strings.TrimSpace(result.Stdout), err)}
	}
	return seconds, nil
}

// Version returns the first line of ffmpeg -version output.
func (e *Extractor) Version(ctx context.Context) (string, error) {
	ffmpeg, err := e.locator.Locate(binlocate.ToolFFmpeg)
	if err != nil {
		return "", err
	}

	result, runErr := e.runner.Run(ctx, ffmpeg, "-version")
	if runErr != nil {
		return "", &ProcessError{Op: "version", Err: runErr, Stderr: result.Stderr}
	}

	line, _, _ := strings.Cut(result.Stdout, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		line = "unknown"
	}
	return line, nil
}
