// Package pipeline sequences audio extraction and transcription into a
// single run with one continuous progress narrative.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"clipflow/internal/domain"
)

// ErrNoAudioStream reports that the input carries no audio and was
// rejected before any processing started.
var ErrNoAudioStream = errors.New("input has no audio stream")

// audioExtractor is the extraction surface the pipeline consumes.
type audioExtractor interface {
	Probe(ctx context.Context, path string) (domain.MediaProbe, error)
	Extract(ctx context.Context, input, output string, onProgress func(float64)) (string, error)
}

// transcriber is the engine surface the pipeline consumes.
type transcriber interface {
	Transcribe(ctx context.Context, audioPath, modelID, language string, onProgress func(float64)) (domain.TranscriptionResult, error)
}

// Request describes one transcription run.
type Request struct {
	InputPath string
	ModelID   string
	Language  string

	// AudioOnly skips probing and extraction and feeds InputPath to the
	// engine directly. The input must already be engine-compatible audio.
	AudioOnly bool

	// OnProgress receives stage and overall percent updates. It may be
	// invoked from the goroutines reading subprocess output, not the
	// caller's, and must not assume serialized access to caller state.
	OnProgress func(stage domain.PipelineStage, percent float64)
}

// Pipeline runs extraction then transcription for one input, remapping
// each stage's 0-100 into a single overall percentage: extraction covers
// [0,30] and transcription [30,100].
type Pipeline struct {
	extractor   audioExtractor
	transcriber transcriber
	tempDir     string
	newID       func() string
	mkdirAll    func(string, os.FileMode) error
	remove      func(string) error
	logger      *log.Logger
}

// New constructs a pipeline writing waveforms under tempDir.
func New(extractor audioExtractor, tr transcriber, tempDir string, logger *log.Logger) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transcriber: tr,
		tempDir:     tempDir,
		newID:       uuid.NewString,
		mkdirAll:    os.MkdirAll,
		remove:      os.Remove,
		logger:      logger,
	}
}

// Run executes the two-stage pipeline. Inputs without an audio stream
// fail with ErrNoAudioStream before any subprocess is spawned. The
// temporary waveform is removed on every exit path, including
// cancellation and mid-stage failure; a failed removal is logged, never
// propagated. Stage errors abort the run and surface unchanged, there
// is no internal retry.
func (p *Pipeline) Run(ctx context.Context, req Request) (domain.TranscriptionResult, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return domain.TranscriptionResult{}, fmt.Errorf("run: %w", domain.ErrInvalidPath)
	}

	emit := func(stage domain.PipelineStage, percent float64) {
		if req.OnProgress != nil {
			req.OnProgress(stage, percent)
		}
	}

	if req.AudioOnly {
		result, err := p.transcriber.Transcribe(ctx, req.InputPath, req.ModelID, req.Language, func(percent float64) {
			emit(domain.StageTranscribing, percent)
		})
		if err != nil {
			return domain.TranscriptionResult{}, err
		}
		emit(domain.StageComplete, 100)
		return result, nil
	}

	probe, err := p.extractor.Probe(ctx, req.InputPath)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	if !probe.HasAudio {
		return domain.TranscriptionResult{}, fmt.Errorf("%s: %w", req.InputPath, ErrNoAudioStream)
	}

	if err := p.mkdirAll(p.tempDir, 0o755); err != nil {
		return domain.TranscriptionResult{}, fmt.Errorf("create temp dir: %w", err)
	}
	wavPath := filepath.Join(p.tempDir, p.newID()+".wav")
	defer func() {
		if removeErr := p.remove(wavPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			p.logger.Warn("failed to remove temporary waveform", "path", wavPath, "error", removeErr)
		}
	}()

	emit(domain.StageExtracting, 0)
	if _, err := p.extractor.Extract(ctx, req.InputPath, wavPath, func(percent float64) {
		emit(domain.StageExtracting, percent*0.3)
	}); err != nil {
		return domain.TranscriptionResult{}, err
	}

	result, err := p.transcriber.Transcribe(ctx, wavPath, req.ModelID, req.Language, func(percent float64) {
		emit(domain.StageTranscribing, 30+percent*0.7)
	})
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	emit(domain.StageComplete, 100)
	return result, nil
}

// NewForTests constructs a pipeline with injectable dependencies.
func NewForTests(
	extractor audioExtractor,
	tr transcriber,
	tempDir string,
	newID func() string,
	mkdirAll func(string, os.FileMode) error,
	remove func(string) error,
) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transcriber: tr,
		tempDir:     tempDir,
		newID:       newID,
		mkdirAll:    mkdirAll,
		remove:      remove,
		logger:      log.New(io.Discard),
	}
}
