package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clipflow/internal/domain"
	"clipflow/internal/engine"
	"clipflow/internal/jobs"
	"clipflow/internal/media"
	"clipflow/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var modelFlag string
	var languageFlag string
	var outputFlag string
	var audioOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe a media file to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			logger := ctx.log()
			locator := ctx.locator(settings)
			store := ctx.modelStore(settings)
			extractor := media.NewExtractor(locator)
			transcriber := engine.NewTranscriber(locator, store, logger)
			pl := pipeline.New(extractor, transcriber, settings.TempDir, logger)

			modelID := firstNonEmpty(modelFlag, settings.Model)
			language := firstNonEmpty(languageFlag, settings.Language)
			outputDir := firstNonEmpty(outputFlag, settings.OutputDir)

			manager := jobs.NewManager()
			bus := jobs.NewEventBus(500)
			jobID := uuid.NewString()
			if err := manager.Start(jobID); err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(100,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("starting"),
					progressbar.OptionClearOnFinish(),
				)
			}

			result, runErr := pl.Run(cmd.Context(), pipeline.Request{
				InputPath: args[0],
				ModelID:   modelID,
				Language:  language,
				AudioOnly: audioOnly,
				OnProgress: func(stage domain.PipelineStage, percent float64) {
					_ = manager.Transition(stageStatus(stage))
					bus.Publish(jobs.Event{
						JobID:   jobID,
						Type:    jobs.EventTypeProgress,
						Status:  manager.Current().Status,
						Stage:   string(stage),
						Percent: percent,
					})
					if bar != nil {
						bar.Describe(string(stage))
						_ = bar.Set(int(percent))
					}
				},
			})
			if bar != nil {
				_ = bar.Close()
			}

			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					_ = manager.Cancel()
				} else {
					_ = manager.Transition(domain.JobStatusFailed)
				}
				bus.Publish(jobs.Event{
					JobID:   jobID,
					Type:    jobs.EventTypeError,
					Status:  manager.Current().Status,
					Message: runErr.Error(),
				})
				return runErr
			}

			_ = manager.Transition(domain.JobStatusDone)
			bus.Publish(jobs.Event{
				JobID:    jobID,
				Type:     jobs.EventTypeResult,
				Status:   domain.JobStatusDone,
				FullText: result.FullText,
			})
			for _, event := range bus.Since(0) {
				logger.Debug("job event",
					"seq", event.Seq,
					"type", event.Type,
					"stage", event.Stage,
					"percent", event.Percent,
				)
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			textPath, err := writeTranscript(outputDir, args[0], result)
			if err != nil {
				return err
			}
			logger.Info("transcription complete",
				"segments", len(result.Segments),
				"language", result.Language,
				"output", textPath,
			)
			fmt.Fprintln(cmd.OutOrStdout(), textPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model id (defaults to configured model)")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Spoken language, or auto")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory for the transcript")
	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Input is already 16 kHz mono WAV; skip extraction")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON instead of writing a file")

	return cmd
}

// stageStatus maps pipeline stages onto job states.
func stageStatus(stage domain.PipelineStage) domain.JobStatus {
	switch stage {
	case domain.StageExtracting:
		return domain.JobStatusExtracting
	case domain.StageTranscribing:
		return domain.JobStatusTranscribing
	default:
		return domain.JobStatusDone
	}
}

// writeTranscript writes the plain-text transcript next to the other
// exports and returns its path.
func writeTranscript(outputDir, inputPath string, result domain.TranscriptionResult) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(outputDir, transcriptFileName(inputPath))
	if err := os.WriteFile(path, []byte(result.FullText+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// transcriptFileName builds the output text filename from the input name.
func transcriptFileName(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." {
		name = "transcript"
	}
	return name + ".txt"
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
