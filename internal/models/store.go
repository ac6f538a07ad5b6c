package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"clipflow/internal/domain"
)

// Model files follow the upstream ggml naming convention inside the
// managed directory. In-flight downloads carry an extra .tmp suffix and
// are renamed into place only once fully written.
const (
	modelPrefix = "ggml-"
	modelSuffix = ".bin"
	tempSuffix  = ".tmp"
)

// NotFoundError reports a model id absent from the catalog or disk.
type NotFoundError struct {
	ID string
}

// Error describes the missing model.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.ID)
}

// DownloadError reports a failed model transfer.
type DownloadError struct {
	ID  string
	Err error
}

// Error describes the failed download.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("download model %s: %v", e.ID, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Store manages the on-disk model directory. The filesystem is the sole
// source of truth: a model is installed exactly when its canonical file
// exists. Concurrent readers are fine; concurrent downloads of the same
// model id must be serialized by the caller.
type Store struct {
	dir    string
	client *http.Client
	lookup func(string) (domain.Model, bool)
}

// NewStore creates a store over the given model directory. The directory
// is created lazily on first download.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		client: &http.Client{},
		lookup: Lookup,
	}
}

// Dir returns the managed model directory.
func (s *Store) Dir() string {
	return s.dir
}

// ResolvePath returns the canonical file path for a model id. Pure naming
// convention; existence is not checked.
func (s *Store) ResolvePath(id string) string {
	return filepath.Join(s.dir, modelPrefix+id+modelSuffix)
}

// IsInstalled reports whether the model's canonical file exists.
func (s *Store) IsInstalled(id string) bool {
	info, err := os.Stat(s.ResolvePath(id))
	return err == nil && !info.IsDir()
}

// ListInstalled scans the model directory and returns the installed model
// ids. A missing directory is treated as empty, not an error.
func (s *Store) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model directory: %w", err)
	}

	var installed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, modelPrefix) || !strings.HasSuffix(name, modelSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, modelPrefix), modelSuffix)
		if id != "" {
			installed = append(installed, id)
		}
	}
	return installed, nil
}

// Statuses joins the catalog with installed state and resolved paths.
func (s *Store) Statuses() []domain.ModelStatus {
	statuses := make([]domain.ModelStatus, 0, len(catalog))
	for _, model := range Catalog() {
		status := domain.ModelStatus{Model: model}
		if s.IsInstalled(model.ID) {
			status.Installed = true
			status.LocalPath = s.ResolvePath(model.ID)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Delete removes the model file if present. Deleting an absent model is
// not an error.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.ResolvePath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete model %s: %w", id, err)
	}
	return nil
}

// Download streams the model to the directory and returns the canonical
// path. onProgress is invoked after every received chunk with
// monotonically non-decreasing downloaded bytes; it runs on the goroutine
// reading the response body, not the caller's. When the server omits a
// content length the catalog size is the fallback denominator, so percent
// may exceed 100 if the transfer turns out larger.
//
// The body is written to a .tmp file and renamed into place only on
// success; on any failure or cancellation the .tmp file is removed and
// the canonical path is never created.
func (s *Store) Download(ctx context.Context, id string, onProgress func(domain.DownloadProgress)) (string, error) {
	model, ok := s.lookup(id)
	if !ok {
		return "", &NotFoundError{ID: id}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.URL, nil)
	if err != nil {
		return "", &DownloadError{ID: id, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &DownloadError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{ID: id, Err: fmt.Errorf("unexpected HTTP status: %s", resp.Status)}
	}

	total := resp.ContentLength
	if total <= 0 {
		total = model.SizeBytes
	}

	finalPath := s.ResolvePath(id)
	tempPath := finalPath + tempSuffix
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &DownloadError{ID: id, Err: err}
	}

	if err := s.stream(resp.Body, file, id, total, onProgress); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return "", &DownloadError{ID: id, Err: err}
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", &DownloadError{ID: id, Err: err}
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return "", &DownloadError{ID: id, Err: err}
	}

	return finalPath, nil
}

// stream copies body to file, emitting one progress update per chunk.
func (s *Store) stream(body io.Reader, file io.Writer, id string, total int64, onProgress func(domain.DownloadProgress)) error {
	buf := make([]byte, 128*1024)
	var downloaded int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			downloaded += int64(n)
			if onProgress != nil {
				percent := 0.0
				if total > 0 {
					percent = float64(downloaded) / float64(total) * 100
				}
				onProgress(domain.DownloadProgress{
					ModelID:    id,
					Downloaded: downloaded,
					Total:      total,
					Percent:    percent,
				})
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// NewStoreForTests creates a store with injectable HTTP client and catalog.
func NewStoreForTests(dir string, client *http.Client, lookup func(string) (domain.Model, bool)) *Store {
	return &Store{dir: dir, client: client, lookup: lookup}
}
