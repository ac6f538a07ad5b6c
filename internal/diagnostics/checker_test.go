package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipflow/internal/binlocate"
	"clipflow/internal/domain"
	"clipflow/internal/models"
)

// pathLocator resolves every tool through a fake PATH.
func pathLocator() *binlocate.Locator {
	return binlocate.NewForTests("", "linux",
		func(string) string { return "" },
		func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
	)
}

// emptyLocator resolves nothing.
func emptyLocator() *binlocate.Locator {
	return binlocate.NewForTests("", "linux",
		func(string) string { return "" },
		func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		func(string) (string, error) { return "", errors.New("not found") },
	)
}

// storeWith returns a model store seeded with the given installed models.
func storeWith(t *testing.T, ids ...string) *models.Store {
	t.Helper()
	store := models.NewStore(t.TempDir())
	for _, id := range ids {
		if err := os.WriteFile(store.ResolvePath(id), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	return store
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(pathLocator(), storeWith(t, "base"),
		os.MkdirAll, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{
		Model:     "base",
		TempDir:   filepath.Join(root, "temp"),
		OutputDir: filepath.Join(root, "output"),
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("expected a report timestamp")
	}
}

// TestCheckerRunMissingToolsAndPaths validates failure reporting.
func TestCheckerRunMissingToolsAndPaths(t *testing.T) {
	checker := NewCheckerForTests(emptyLocator(), storeWith(t),
		os.MkdirAll, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{
		Model:     "base",
		TempDir:   "",
		OutputDir: "",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "tool_ffmpeg", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_ffprobe", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_whisper.cpp", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "models", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "temp_dir", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "output_dir", domain.DiagnosticStatusFail)
}

// TestCheckerRunConfiguredModelMissing validates the model check flags a
// configured-but-absent model even when other models are installed.
func TestCheckerRunConfiguredModelMissing(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(pathLocator(), storeWith(t, "tiny"),
		os.MkdirAll, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{
		Model:     "large-v3",
		TempDir:   filepath.Join(root, "temp"),
		OutputDir: filepath.Join(root, "output"),
	})

	assertStatusByID(t, report, "models", domain.DiagnosticStatusFail)
}

// TestCheckerRunUnwritableDirFails validates the write probe.
func TestCheckerRunUnwritableDirFails(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(pathLocator(), storeWith(t, "base"),
		os.MkdirAll,
		func(string, string) (*os.File, error) { return nil, os.ErrPermission },
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		Model:     "base",
		TempDir:   filepath.Join(root, "temp"),
		OutputDir: filepath.Join(root, "output"),
	})

	assertStatusByID(t, report, "temp_dir", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "output_dir", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
