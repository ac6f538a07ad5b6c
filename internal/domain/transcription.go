package domain

// PipelineStage identifies one phase of the two-phase transcription pipeline.
type PipelineStage string

const (
	StageExtracting   PipelineStage = "extracting"
	StageTranscribing PipelineStage = "transcribing"
	StageComplete     PipelineStage = "complete"
)

// TranscriptionSegment is a single timestamped span of recognized text.
type TranscriptionSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the full output of one transcription run.
type TranscriptionResult struct {
	Segments []TranscriptionSegment `json:"segments"`
	FullText string                 `json:"fullText"`
	Language string                 `json:"language,omitempty"`
	Duration float64                `json:"duration"`
}

// MediaProbe describes container format and stream presence of a media file.
type MediaProbe struct {
	Format   string  `json:"format"`
	Duration float64 `json:"duration"`
	HasVideo bool    `json:"hasVideo"`
	HasAudio bool    `json:"hasAudio"`
}
