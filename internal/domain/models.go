package domain

// Model describes one downloadable whisper.cpp model preset.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SizeBytes   int64  `json:"sizeBytes"`
	SizeLabel   string `json:"sizeLabel"`
	URL         string `json:"url"`
	SHA256      string `json:"sha256,omitempty"`
}

// ModelStatus joins a catalog entry with its installed state on disk.
type ModelStatus struct {
	Model
	Installed bool   `json:"installed"`
	LocalPath string `json:"localPath,omitempty"`
}

// DownloadProgress reports byte-level progress for one model download.
// Emitted once per received chunk and not retained afterwards.
type DownloadProgress struct {
	ModelID    string  `json:"modelId"`
	Downloaded int64   `json:"downloaded"`
	Total      int64   `json:"total"`
	Percent    float64 `json:"percent"`
}
