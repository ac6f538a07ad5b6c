package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"clipflow/internal/binlocate"
	"clipflow/internal/domain"
	"clipflow/internal/models"
)

// ErrEngineNotFound reports that no whisper.cpp binary could be located.
// Callers should treat transcription as unavailable rather than fail hard
// at startup.
var ErrEngineNotFound = errors.New("transcription engine not found")

// TranscribeError reports a failed engine run or unparsable engine output.
type TranscribeError struct {
	Err error
}

// Error describes the failure.
func (e *TranscribeError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *TranscribeError) Unwrap() error {
	return e.Err
}

// stderrRunner abstracts line-streamed execution of the engine, which
// reports progress on its diagnostic stream.
type stderrRunner interface {
	RunStream(ctx context.Context, onLine func(string), name string, args ...string) error
}

// execStderrRunner runs the engine via os/exec with a piped stderr.
type execStderrRunner struct{}

// RunStream starts the command, scans stderr line by line into onLine,
// and waits for exit. Cancelling ctx kills the process.
func (r *execStderrRunner) RunStream(ctx context.Context, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	waitErr := cmd.Wait()
	if scanErr := scanner.Err(); waitErr == nil && scanErr != nil {
		return scanErr
	}
	return waitErr
}

// Transcriber invokes whisper.cpp against an extracted waveform and an
// installed model, turning its mixed progress lines and JSON output file
// into a TranscriptionResult.
type Transcriber struct {
	locator  *binlocate.Locator
	store    *models.Store
	stream   stderrRunner
	readFile func(string) ([]byte, error)
	remove   func(string) error
	logger   *log.Logger
}

// NewTranscriber constructs a transcriber with real OS dependencies.
func NewTranscriber(locator *binlocate.Locator, store *models.Store, logger *log.Logger) *Transcriber {
	return &Transcriber{
		locator:  locator,
		store:    store,
		stream:   &execStderrRunner{},
		readFile: os.ReadFile,
		remove:   os.Remove,
		logger:   logger,
	}
}

// Available reports whether the engine binary can be located.
func (t *Transcriber) Available() bool {
	_, err := t.locator.Locate(binlocate.ToolEngine)
	return err == nil
}

// Transcribe runs the engine against audioPath with the named model.
// Preconditions are checked before any spawn: the engine binary must be
// locatable and the model installed. onProgress receives the engine's
// self-reported 0-100 percentages, which may regress; it runs on the
// goroutine reading the diagnostic stream, not the caller's.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, modelID, language string, onProgress func(float64)) (domain.TranscriptionResult, error) {
	if strings.TrimSpace(audioPath) == "" {
		return domain.TranscriptionResult{}, fmt.Errorf("transcribe: %w", domain.ErrInvalidPath)
	}

	enginePath, err := t.locator.Locate(binlocate.ToolEngine)
	if err != nil {
		return domain.TranscriptionResult{}, fmt.Errorf("%w: %v", ErrEngineNotFound, err)
	}

	if !t.store.IsInstalled(modelID) {
		return domain.TranscriptionResult{}, &models.NotFoundError{ID: modelID}
	}

	outputPath := outputFilePath(audioPath)
	args := []string{
		"-m", t.store.ResolvePath(modelID),
		"-f", audioPath,
		"-oj",
		"-of", strings.TrimSuffix(outputPath, ".json"),
		"-pp",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}

	runErr := t.stream.RunStream(ctx, func(line string) {
		if percent, ok := parseEngineProgress(line); ok && onProgress != nil {
			onProgress(percent)
		}
	}, enginePath, args...)
	if runErr != nil {
		return domain.TranscriptionResult{}, &TranscribeError{Err: runErr}
	}

	if onProgress != nil {
		onProgress(100)
	}

	result, err := t.parseOutputFile(outputPath)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	return result, nil
}

// outputFilePath derives the engine's JSON output path from the audio path.
func outputFilePath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + ".json"
}

// parseEngineProgress extracts N from "progress = N%" diagnostic lines.
// Anything else is ignorable noise.
func parseEngineProgress(line string) (float64, bool) {
	if !strings.Contains(line, "progress") {
		return 0, false
	}
	_, value, ok := strings.Cut(line, "=")
	if !ok {
		return 0, false
	}
	percent, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "%"), 64)
	if err != nil {
		return 0, false
	}
	return percent, true
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// NewTranscriberForTests constructs a transcriber with injectable deps.
func NewTranscriberForTests(
	locator *binlocate.Locator,
	store *models.Store,
	stream stderrRunner,
	readFile func(string) ([]byte, error),
	remove func(string) error,
) *Transcriber {
	return &Transcriber{
		locator:  locator,
		store:    store,
		stream:   stream,
		readFile: readFile,
		remove:   remove,
		logger:   log.New(io.Discard),
	}
}
