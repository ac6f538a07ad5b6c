package engine

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// engineReleaseVersion pins the whisper.cpp release the installer fetches.
const engineReleaseVersion = "v1.8.2"

// fallbackArchiveSize is the progress denominator when the server omits
// Content-Length.
const fallbackArchiveSize = 50_000_000

// UnsupportedPlatformError reports that no prebuilt engine archive exists
// for the platform. Hint names the alternate install route when one is
// known.
type UnsupportedPlatformError struct {
	OS   string
	Hint string
}

// Error describes the unsupported platform.
func (e *UnsupportedPlatformError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("no engine archive for %s: %s", e.OS, e.Hint)
	}
	return fmt.Sprintf("no engine archive for %s", e.OS)
}

// InstallError reports a failed engine download or unpack.
type InstallError struct {
	Err error
}

// Error describes the failure.
func (e *InstallError) Error() string {
	return fmt.Sprintf("install engine: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// archiveSpec names the release archive and the binary it contains.
type archiveSpec struct {
	URL        string
	BinaryName string
}

// resolveArchive maps a platform to its release archive. Upstream only
// publishes Windows binaries; macOS users get pointed at Homebrew and
// everyone else at their package manager.
func resolveArchive(goos, goarch string) (archiveSpec, error) {
	base := "https://github.com/ggml-org/whisper.cpp/releases/download/" + engineReleaseVersion + "/"
	switch {
	case goos == "windows" && goarch == "amd64":
		return archiveSpec{URL: base + "whisper-bin-x64.zip", BinaryName: "whisper-cli.exe"}, nil
	case goos == "windows" && goarch == "386":
		return archiveSpec{URL: base + "whisper-bin-Win32.zip", BinaryName: "whisper-cli.exe"}, nil
	case goos == "darwin":
		return archiveSpec{}, &UnsupportedPlatformError{OS: goos, Hint: "install with Homebrew (brew install whisper-cpp)"}
	default:
		return archiveSpec{}, &UnsupportedPlatformError{OS: goos, Hint: "install whisper.cpp with your package manager"}
	}
}

// Installer downloads and unpacks the platform's engine archive into the
// managed binary directory.
type Installer struct {
	binDir  string
	goos    string
	goarch  string
	client  *http.Client
	resolve func(goos, goarch string) (archiveSpec, error)
}

// NewInstaller creates an installer targeting binDir on the current platform.
func NewInstaller(binDir string) *Installer {
	return &Installer{
		binDir:  binDir,
		goos:    goruntime.GOOS,
		goarch:  goruntime.GOARCH,
		client:  &http.Client{},
		resolve: resolveArchive,
	}
}

// Install fetches the engine archive and places the binary at
// <binDir>/whisper-cpp[.exe], returning its path. Download progress maps
// to [5,75] and unpack/cleanup to [75,100]. Unsupported platforms fail
// before any network call. The archive file is removed afterwards
// regardless of outcome.
func (i *Installer) Install(ctx context.Context, onProgress func(percent float64, message string)) (string, error) {
	spec, err := i.resolve(i.goos, i.goarch)
	if err != nil {
		return "", err
	}

	emit := func(percent float64, message string) {
		if onProgress != nil {
			onProgress(percent, message)
		}
	}
	emit(0, "Preparing download...")

	if err := os.MkdirAll(i.binDir, 0o755); err != nil {
		return "", &InstallError{Err: err}
	}

	archivePath := filepath.Join(i.binDir, "whisper-cpp.zip")
	defer os.Remove(archivePath)

	emit(5, "Downloading whisper.cpp...")
	if err := i.download(ctx, spec.URL, archivePath, emit); err != nil {
		return "", err
	}

	emit(75, "Extracting whisper.cpp...")
	enginePath, err := i.extract(archivePath, spec.BinaryName)
	if err != nil {
		return "", &InstallError{Err: err}
	}

	emit(95, "Cleaning up...")
	emit(100, "Installation complete")
	return enginePath, nil
}

// download streams the archive to disk, mapping byte progress into [5,75].
func (i *Installer) download(ctx context.Context, url, dest string, emit func(float64, string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &InstallError{Err: err}
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return &InstallError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &InstallError{Err: fmt.Errorf("unexpected HTTP status: %s", resp.Status)}
	}

	total := resp.ContentLength
	if total <= 0 {
		total = fallbackArchiveSize
	}

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &InstallError{Err: err}
	}

	buf := make([]byte, 128*1024)
	var downloaded int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				_ = file.Close()
				return &InstallError{Err: writeErr}
			}
			downloaded += int64(n)
			emit(5+float64(downloaded)/float64(total)*70, "Downloading whisper.cpp...")
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = file.Close()
			return &InstallError{Err: readErr}
		}
	}
	if err := file.Close(); err != nil {
		return &InstallError{Err: err}
	}
	return nil
}

// extract finds the engine binary inside the archive by filename suffix
// match and writes it to the managed directory under the canonical name.
func (i *Installer) extract(archivePath, binaryName string) (string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	targetName := "whisper-cpp"
	if i.goos == "windows" {
		targetName += ".exe"
	}
	targetPath := filepath.Join(i.binDir, targetName)

	for _, entry := range reader.File {
		name := entry.Name
		if strings.HasSuffix(name, "/") {
			continue
		}
		if !strings.HasSuffix(name, binaryName) && !strings.Contains(name, "whisper-cli") {
			continue
		}

		src, err := entry.Open()
		if err != nil {
			return "", err
		}

		mode := os.FileMode(0o644)
		if i.goos != "windows" {
			mode = 0o755
		}
		dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			_ = src.Close()
			return "", err
		}

		_, copyErr := io.Copy(dst, src)
		_ = src.Close()
		closeErr := dst.Close()
		if copyErr != nil {
			return "", copyErr
		}
		if closeErr != nil {
			return "", closeErr
		}

		if i.goos != "windows" {
			if err := os.Chmod(targetPath, 0o755); err != nil {
				return "", err
			}
		}
		return targetPath, nil
	}

	return "", fmt.Errorf("binary %q not found in archive", binaryName)
}

// NewInstallerForTests creates an installer with injectable platform and
// archive resolution.
func NewInstallerForTests(binDir, goos, goarch string, client *http.Client, resolve func(string, string) (archiveSpec, error)) *Installer {
	return &Installer{binDir: binDir, goos: goos, goarch: goarch, client: client, resolve: resolve}
}
