package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipflow/internal/binlocate"
	"clipflow/internal/models"
)

// fakeStderrStream simulates the engine's diagnostic stream.
type fakeStderrStream struct {
	lines   []string
	err     error
	called  bool
	name    string
	args    []string
	prepare func(args []string)
}

func (f *fakeStderrStream) RunStream(ctx context.Context, onLine func(string), name string, args ...string) error {
	f.called = true
	f.name = name
	f.args = append([]string{}, args...)
	if f.prepare != nil {
		f.prepare(args)
	}
	for _, line := range f.lines {
		onLine(line)
	}
	return f.err
}

// engineLocator resolves the engine through PATH.
func engineLocator() *binlocate.Locator {
	return binlocate.NewForTests("", "linux",
		func(string) string { return "" },
		func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
	)
}

// noEngineLocator never resolves anything.
func noEngineLocator() *binlocate.Locator {
	return binlocate.NewForTests("", "linux",
		func(string) string { return "" },
		func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		func(string) (string, error) { return "", errors.New("not found") },
	)
}

// installedStore returns a store with the given model ids present on disk.
func installedStore(t *testing.T, ids ...string) *models.Store {
	t.Helper()
	store := models.NewStore(t.TempDir())
	for _, id := range ids {
		if err := os.WriteFile(store.ResolvePath(id), []byte("model"), 0o644); err != nil {
			t.Fatalf("write model file: %v", err)
		}
	}
	return store
}

// TestTranscribeEngineNotFound checks the typed precondition failure.
func TestTranscribeEngineNotFound(t *testing.T) {
	stream := &fakeStderrStream{}
	tr := NewTranscriberForTests(noEngineLocator(), installedStore(t, "tiny"), stream, nil, nil)

	_, err := tr.Transcribe(context.Background(), "audio.wav", "tiny", "", nil)
	if !errors.Is(err, ErrEngineNotFound) {
		t.Fatalf("Transcribe() error = %v, want ErrEngineNotFound", err)
	}
	if stream.called {
		t.Fatal("engine must not spawn when it cannot be located")
	}
}

// TestTranscribeModelNotInstalled checks no spawn for a missing model.
func TestTranscribeModelNotInstalled(t *testing.T) {
	stream := &fakeStderrStream{}
	tr := NewTranscriberForTests(engineLocator(), installedStore(t), stream, nil, nil)

	_, err := tr.Transcribe(context.Background(), "audio.wav", "tiny", "", nil)
	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Transcribe() error = %v, want *models.NotFoundError", err)
	}
	if notFound.ID != "tiny" {
		t.Fatalf("NotFoundError.ID = %q", notFound.ID)
	}
	if stream.called {
		t.Fatal("engine must not spawn when the model is missing")
	}
}

// TestTranscribeSuccess checks args, progress parsing, and result parsing.
func TestTranscribeSuccess(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "speech.wav")
	outputPath := filepath.Join(dir, "speech.json")
	outputContent := `{
		"transcription": [
			{"timestamps": {"from": "00:00:00,000", "to": "00:00:02,000"}, "text": "Hello there"}
		],
		"result": {"language": "en"}
	}`

	stream := &fakeStderrStream{lines: []string{
		"whisper_init_from_file: loading model",
		"progress = 25%",
		"progress =  60%",
		"main: processing",
	}}
	var removed []string
	tr := NewTranscriberForTests(engineLocator(), installedStore(t, "base"), stream,
		func(path string) ([]byte, error) {
			if path != outputPath {
				t.Fatalf("read %q, want %q", path, outputPath)
			}
			return []byte(outputContent), nil
		},
		func(path string) error {
			removed = append(removed, path)
			return nil
		},
	)

	var progress []float64
	result, err := tr.Transcribe(context.Background(), audioPath, "base", "en", func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	want := []float64{25, 60, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", progress, want)
		}
	}

	if result.FullText != "Hello there" || result.Language != "en" {
		t.Fatalf("result = %+v", result)
	}
	if len(removed) != 1 || removed[0] != outputPath {
		t.Fatalf("removed = %v", removed)
	}

	if !hasArgPair(stream.args, "-f", audioPath) {
		t.Fatalf("missing audio arg: %v", stream.args)
	}
	if !hasArgPair(stream.args, "-l", "en") {
		t.Fatalf("missing language arg: %v", stream.args)
	}
	if !hasArg(stream.args, "-oj") || !hasArg(stream.args, "-pp") {
		t.Fatalf("missing output/progress flags: %v", stream.args)
	}
}

// TestTranscribeAutoLanguageOmitsFlag checks "auto" maps to no -l flag.
func TestTranscribeAutoLanguageOmitsFlag(t *testing.T) {
	stream := &fakeStderrStream{}
	tr := NewTranscriberForTests(engineLocator(), installedStore(t, "base"), stream,
		func(string) ([]byte, error) { return []byte(`{"transcription": []}`), nil },
		func(string) error { return nil },
	)

	if _, err := tr.Transcribe(context.Background(), "a.wav", "base", "auto", nil); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if hasArg(stream.args, "-l") {
		t.Fatalf("auto language should not pass -l, args = %v", stream.args)
	}
}

// TestTranscribeNonZeroExit checks a failed engine run is a hard error.
func TestTranscribeNonZeroExit(t *testing.T) {
	stream := &fakeStderrStream{err: errors.New("exit status 3")}
	tr := NewTranscriberForTests(engineLocator(), installedStore(t, "base"), stream, nil, nil)

	_, err := tr.Transcribe(context.Background(), "a.wav", "base", "", nil)
	var transcribeErr *TranscribeError
	if !errors.As(err, &transcribeErr) {
		t.Fatalf("Transcribe() error = %v, want *TranscribeError", err)
	}
}

// TestParseEngineProgressNoise checks non-progress lines are ignored.
func TestParseEngineProgressNoise(t *testing.T) {
	for _, line := range []string{"", "loading model", "progress", "progress = x%"} {
		if _, ok := parseEngineProgress(line); ok {
			t.Fatalf("line %q should not parse", line)
		}
	}
	if percent, ok := parseEngineProgress("whisper_print_progress_callback: progress =   5%"); !ok || percent != 5 {
		t.Fatalf("progress line parse = %v, %v", percent, ok)
	}
}

// hasArg reports whether args contains the exact value.
func hasArg(args []string, value string) bool {
	for _, arg := range args {
		if arg == value {
			return true
		}
	}
	return false
}

// hasArgPair reports whether args contains key immediately followed by value.
func hasArgPair(args []string, key, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key && args[i+1] == value {
			return true
		}
	}
	return false
}
