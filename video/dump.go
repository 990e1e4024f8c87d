package video

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StatsDump is the serialized form of one clip's measurement sequence.
// Dumps double as replay input: every analysis path can run from a dump
// without the vision pipeline being available.
type StatsDump struct {
	Source   string       `json:"source,omitempty"`
	Metadata Metadata     `json:"metadata"`
	Frames   []FrameStats `json:"frames"`
}

// LoadStatsDump reads a measurement dump from disk.
func LoadStatsDump(path string) (StatsDump, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return StatsDump{}, fmt.Errorf("failed to read stats dump: %w", err)
	}

	var dump StatsDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return StatsDump{}, fmt.Errorf("unable to parse stats dump %s: %w", path, err)
	}
	return dump, nil
}

// WriteFile persists the dump as indented JSON, creating parent
// directories as needed.
func (d StatsDump) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats dump: %w", err)
	}
	return nil
}

// DumpSource replays recorded measurement dumps through the FrameSource
// contract. Dump frames were already sampled when recorded, so the stride
// is not applied again; only the optional cap is honored.
type DumpSource struct{}

func (DumpSource) ExtractFrameStats(path string, _ float64, maxSamples int) ([]FrameStats, Metadata, error) {
	dump, err := LoadStatsDump(path)
	if err != nil {
		return nil, Metadata{}, err
	}

	frames := dump.Frames
	if maxSamples > 0 && len(frames) > maxSamples {
		frames = frames[:maxSamples]
	}

	return frames, dump.Metadata, nil
}
