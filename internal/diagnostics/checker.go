// Package diagnostics validates external tools and required filesystem
// paths before a transcription run.
package diagnostics

import (
	"fmt"
	"os"
	"strings"
	"time"

	"clipflow/internal/binlocate"
	"clipflow/internal/domain"
	"clipflow/internal/models"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	locator    *binlocate.Locator
	store      *models.Store
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(locator *binlocate.Locator, store *models.Store) *Checker {
	return &Checker{
		locator:    locator,
		store:      store,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all environment checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(binlocate.ToolFFmpeg, "ffmpeg", "Install ffmpeg and ensure it is on PATH or in the managed binary directory."),
		c.checkTool(binlocate.ToolFFprobe, "ffprobe", "ffprobe ships with ffmpeg; install ffmpeg to get it."),
		c.checkTool(binlocate.ToolEngine, "whisper.cpp", "Run the engine install command or install whisper.cpp manually."),
		c.checkModels(settings.Model),
		c.checkWritableDir("temp_dir", "Temp directory", settings.TempDir),
		c.checkWritableDir("output_dir", "Output directory", settings.OutputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required external binary can be located.
func (c *Checker) checkTool(tool, name, hint string) domain.DiagnosticItem {
	path, err := c.locator.Locate(tool)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found: %s", name),
			Hint:    hint,
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkModels validates the model directory holds the configured model.
func (c *Checker) checkModels(defaultModel string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "models",
		Name: "Models",
	}

	installed, err := c.store.ListInstalled()
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot read model directory: %s", c.store.Dir())
		item.Hint = "Check permissions for the model directory."
		return item
	}

	if len(installed) == 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("No models installed in %s", c.store.Dir())
		item.Hint = "Download a model with the models download command."
		return item
	}

	if defaultModel != "" && !c.store.IsInstalled(defaultModel) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Configured model %q is not installed", defaultModel)
		item.Hint = fmt.Sprintf("Download it or change the configured model; installed: %s", strings.Join(installed, ", "))
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Installed models: %s", strings.Join(installed, ", "))
	return item
}

// checkWritableDir validates directory existence and write access.
func (c *Checker) checkWritableDir(id, name, dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   id,
		Name: name,
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("%s is not configured.", name)
		item.Hint = "Set a directory path in settings."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = "Choose a writable directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	locator *binlocate.Locator,
	store *models.Store,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		locator:    locator,
		store:      store,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
