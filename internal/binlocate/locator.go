package binlocate

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
)

// Well-known tool names accepted by Locate.
const (
	ToolFFmpeg  = "ffmpeg"
	ToolFFprobe = "ffprobe"
	ToolEngine  = "whisper-cpp"
)

// engineAliases are alternate engine binary names, newest first. Older
// whisper.cpp releases shipped the CLI as "whisper-cli" or plain "main".
var engineAliases = []string{ToolEngine, "whisper-cli", "main"}

// NotFoundError reports that no candidate location contained the tool.
type NotFoundError struct {
	Tool string
}

// Error describes the missing tool.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Tool)
}

// Locator resolves external tool binaries across platform install
// locations, the application bin directory, and PATH.
type Locator struct {
	binDir   string
	goos     string
	getenv   func(string) string
	stat     func(string) (os.FileInfo, error)
	lookPath func(string) (string, error)
}

// New builds a locator using real OS dependencies. binDir is the
// application-private directory that holds self-installed binaries.
func New(binDir string) *Locator {
	return &Locator{
		binDir:   binDir,
		goos:     goruntime.GOOS,
		getenv:   os.Getenv,
		stat:     os.Stat,
		lookPath: exec.LookPath,
	}
}

// BinDir returns the application-private binary directory.
func (l *Locator) BinDir() string {
	return l.binDir
}

// Locate returns the first existing path for the named tool. Search order
// is platform-conventional install paths (including the application bin
// directory), then PATH, then legacy alternate names for the engine.
// Returns *NotFoundError when nothing matches; existence is the only
// check, executability is left to the spawn.
func (l *Locator) Locate(tool string) (string, error) {
	names := []string{tool}
	if tool == ToolEngine {
		names = engineAliases
	}

	for _, name := range names {
		for _, candidate := range l.candidates(name) {
			info, err := l.stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	for _, name := range names {
		if path, err := l.lookPath(l.exeName(name)); err == nil {
			return path, nil
		}
	}

	return "", &NotFoundError{Tool: tool}
}

// candidates builds the ordered fixed-path list for one binary name from
// the per-platform location table.
func (l *Locator) candidates(name string) []string {
	exe := l.exeName(name)
	paths := make([]string, 0, 6)
	if l.binDir != "" {
		paths = append(paths, filepath.Join(l.binDir, exe))
	}

	switch l.goos {
	case "darwin":
		paths = append(paths,
			filepath.Join("/opt/homebrew/bin", exe),
			filepath.Join("/usr/local/bin", exe),
		)
	case "windows":
		if programFiles := l.getenv("PROGRAMFILES"); programFiles != "" {
			paths = append(paths, filepath.Join(programFiles, name, exe))
			paths = append(paths, filepath.Join(programFiles, name, "bin", exe))
		}
		if localAppData := l.getenv("LOCALAPPDATA"); localAppData != "" {
			paths = append(paths, filepath.Join(localAppData, name, exe))
			paths = append(paths, filepath.Join(localAppData, name, "bin", exe))
		}
	default:
		paths = append(paths,
			filepath.Join("/usr/bin", exe),
			filepath.Join("/usr/local/bin", exe),
		)
	}
	return paths
}

// exeName appends the Windows executable suffix where required.
func (l *Locator) exeName(name string) string {
	if l.goos == "windows" {
		return name + ".exe"
	}
	return name
}

// NewForTests creates a locator with injectable dependencies.
func NewForTests(
	binDir string,
	goos string,
	getenv func(string) string,
	stat func(string) (os.FileInfo, error),
	lookPath func(string) (string, error),
) *Locator {
	return &Locator{
		binDir:   binDir,
		goos:     goos,
		getenv:   getenv,
		stat:     stat,
		lookPath: lookPath,
	}
}
