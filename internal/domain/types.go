package domain

// JobStatus tracks each pipeline stage for a single transcription job.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusExtracting   JobStatus = "extracting"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusDone         JobStatus = "done"
	JobStatusFailed       JobStatus = "failed"
	JobStatusCancelled    JobStatus = "cancelled"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ModelDir  string `toml:"model_dir" json:"modelDir"`
	BinDir    string `toml:"bin_dir" json:"binDir"`
	TempDir   string `toml:"temp_dir" json:"tempDir"`
	OutputDir string `toml:"output_dir" json:"outputDir"`
	Model     string `toml:"model" json:"model"`
	Language  string `toml:"language" json:"language"`
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}
