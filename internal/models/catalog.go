package models

import (
	"github.com/dustin/go-humanize"

	"clipflow/internal/domain"
)

const downloadBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// catalog is the fixed table of known whisper.cpp model presets. Defined
// once at process start and never mutated.
var catalog = []domain.Model{
	preset("tiny", "Tiny", "Fastest multilingual model.", 77_700_000),
	preset("base", "Base", "Balanced speed and quality.", 148_000_000),
	preset("small", "Small", "Higher quality multilingual model.", 488_000_000),
	preset("medium", "Medium", "High quality multilingual model.", 1_530_000_000),
	preset("large-v1", "Large v1", "Very high quality, first large release.", 3_090_000_000),
	preset("large-v2", "Large v2", "Very high quality multilingual model.", 3_090_000_000),
	preset("large-v3", "Large v3", "Latest large multilingual model.", 3_100_000_000),
	preset("large-v3-turbo", "Large v3 Turbo", "Faster large-v3 variant.", 1_620_000_000),
}

// preset builds one catalog entry following the ggml file naming scheme.
func preset(id, name, description string, sizeBytes int64) domain.Model {
	return domain.Model{
		ID:          id,
		Name:        name,
		Description: description,
		SizeBytes:   sizeBytes,
		SizeLabel:   humanize.Bytes(uint64(sizeBytes)),
		URL:         downloadBaseURL + "ggml-" + id + ".bin",
	}
}

// Catalog returns a copy of all known model presets.
func Catalog() []domain.Model {
	out := make([]domain.Model, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id, if known.
func Lookup(id string) (domain.Model, bool) {
	for _, model := range catalog {
		if model.ID == id {
			return model, true
		}
	}
	return domain.Model{}, false
}
