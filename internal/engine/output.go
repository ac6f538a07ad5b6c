package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"clipflow/internal/domain"
)

// outputPayload mirrors the whisper.cpp -oj output file shape. Segments
// carry either formatted timestamp strings or raw millisecond offsets.
type outputPayload struct {
	Transcription []struct {
		Timestamps struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"timestamps"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
}

// parseOutputFile reads and parses the engine's JSON output, then removes
// the file best-effort; a failed removal is logged, never surfaced.
func (t *Transcriber) parseOutputFile(path string) (domain.TranscriptionResult, error) {
	defer func() {
		if err := t.remove(path); err != nil && t.logger != nil {
			t.logger.Warn("could not remove engine output file", "path", path, "err", err)
		}
	}()

	content, err := t.readFile(path)
	if err != nil {
		return domain.TranscriptionResult{}, &TranscribeError{Err: fmt.Errorf("read engine output: %w", err)}
	}

	var payload outputPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		return domain.TranscriptionResult{}, &TranscribeError{Err: fmt.Errorf("parse engine output: %w", err)}
	}

	result := domain.TranscriptionResult{Language: payload.Result.Language}
	texts := make([]string, 0, len(payload.Transcription))
	for _, raw := range payload.Transcription {
		text := strings.TrimSpace(raw.Text)
		if text == "" {
			continue
		}

		segment := domain.TranscriptionSegment{Text: text}
		segment.Start = segmentTime(raw.Timestamps.From, raw.Offsets.From)
		segment.End = segmentTime(raw.Timestamps.To, raw.Offsets.To)

		result.Segments = append(result.Segments, segment)
		texts = append(texts, text)
	}

	result.FullText = strings.TrimSpace(strings.Join(texts, " "))
	if n := len(result.Segments); n > 0 {
		result.Duration = result.Segments[n-1].End
	}
	return result, nil
}

// segmentTime prefers the formatted timestamp and falls back to the raw
// millisecond offset when the formatted field is absent or malformed.
func segmentTime(timestamp string, offsetMillis int64) float64 {
	if seconds, ok := parseTimestamp(timestamp); ok {
		return seconds
	}
	return float64(offsetMillis) / 1000
}

// parseTimestamp converts "HH:MM:SS.mmm" (or the comma variant) to seconds.
func parseTimestamp(value string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(strings.ReplaceAll(parts[2], ",", "."), 64)
	if err != nil {
		return 0, false
	}

	return hours*3600 + minutes*60 + seconds, true
}
