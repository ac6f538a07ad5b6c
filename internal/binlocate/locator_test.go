package binlocate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeFileInfo is a minimal os.FileInfo for stat fakes.
type fakeFileInfo struct {
	name string
	dir  bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 1 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0o755 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() any           { return nil }

// statOnly returns a stat fake that succeeds for the listed paths.
func statOnly(existing ...string) func(string) (os.FileInfo, error) {
	set := map[string]struct{}{}
	for _, p := range existing {
		set[p] = struct{}{}
	}
	return func(path string) (os.FileInfo, error) {
		if _, ok := set[path]; ok {
			return fakeFileInfo{name: filepath.Base(path)}, nil
		}
		return nil, os.ErrNotExist
	}
}

// noPath is a lookPath fake that never resolves.
func noPath(string) (string, error) {
	return "", errors.New("not found")
}

// TestLocatePrefersBinDir verifies the app bin directory wins over PATH.
func TestLocatePrefersBinDir(t *testing.T) {
	want := filepath.Join("/data/clipflow/bin", "ffmpeg")
	loc := NewForTests("/data/clipflow/bin", "linux",
		func(string) string { return "" },
		statOnly(want),
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
	)

	got, err := loc.Locate(ToolFFmpeg)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != want {
		t.Fatalf("Locate() = %q, want %q", got, want)
	}
}

// TestLocateDarwinHomebrew verifies the Homebrew path table on macOS.
func TestLocateDarwinHomebrew(t *testing.T) {
	want := "/opt/homebrew/bin/ffprobe"
	loc := NewForTests("", "darwin",
		func(string) string { return "" },
		statOnly(want),
		noPath,
	)

	got, err := loc.Locate(ToolFFprobe)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != want {
		t.Fatalf("Locate() = %q, want %q", got, want)
	}
}

// TestLocateEngineLegacyAlias verifies fallback to legacy engine names.
func TestLocateEngineLegacyAlias(t *testing.T) {
	loc := NewForTests("", "linux",
		func(string) string { return "" },
		statOnly(),
		func(name string) (string, error) {
			if name == "whisper-cli" {
				return "/usr/local/bin/whisper-cli", nil
			}
			return "", errors.New("not found")
		},
	)

	got, err := loc.Locate(ToolEngine)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != "/usr/local/bin/whisper-cli" {
		t.Fatalf("Locate() = %q", got)
	}
}

// TestLocateWindowsEnvPaths verifies env-derived candidates and .exe suffix.
func TestLocateWindowsEnvPaths(t *testing.T) {
	want := filepath.Join(`C:\Program Files`, "ffmpeg", "bin", "ffmpeg.exe")
	loc := NewForTests("", "windows",
		func(key string) string {
			if key == "PROGRAMFILES" {
				return `C:\Program Files`
			}
			return ""
		},
		statOnly(want),
		noPath,
	)

	got, err := loc.Locate(ToolFFmpeg)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != want {
		t.Fatalf("Locate() = %q, want %q", got, want)
	}
}

// TestLocateNotFound verifies the typed error when nothing matches.
func TestLocateNotFound(t *testing.T) {
	loc := NewForTests("/bin/none", "linux",
		func(string) string { return "" },
		statOnly(),
		noPath,
	)

	_, err := loc.Locate(ToolEngine)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Locate() error = %v, want *NotFoundError", err)
	}
	if notFound.Tool != ToolEngine {
		t.Fatalf("NotFoundError.Tool = %q", notFound.Tool)
	}
}

// TestLocateSkipsDirectories verifies a directory at a candidate path is ignored.
func TestLocateSkipsDirectories(t *testing.T) {
	dirPath := filepath.Join("/data/bin", "ffmpeg")
	loc := NewForTests("/data/bin", "linux",
		func(string) string { return "" },
		func(path string) (os.FileInfo, error) {
			if path == dirPath {
				return fakeFileInfo{name: "ffmpeg", dir: true}, nil
			}
			return nil, os.ErrNotExist
		},
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
	)

	got, err := loc.Locate(ToolFFmpeg)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != "/usr/bin/ffmpeg" {
		t.Fatalf("Locate() = %q, want PATH fallback", got)
	}
}
