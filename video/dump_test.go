package video

import (
	"os"
	"path/filepath"
	"testing"
)

func fixtureDump() StatsDump {
	return StatsDump{
		Source: "clips/demo.mp4",
		Metadata: Metadata{
			FPS:             30,
			FrameCount:      90,
			DurationSeconds: 3,
			Width:           1280,
			Height:          720,
		},
		Frames: []FrameStats{
			{Index: 0, Timestamp: 0.0, PersonCount: 1, MovingObjects: 0, MotionMagnitude: 0.4},
			{Index: 10, Timestamp: 0.33, PersonCount: 2, MovingObjects: 1, MotionMagnitude: 1.2},
			{Index: 20, Timestamp: 0.66, PersonCount: 2, MovingObjects: 2, MotionMagnitude: 2.1},
			{Index: 30, Timestamp: 1.0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.1},
		},
	}
}

func TestStatsDumpRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dump.json")
	original := fixtureDump()

	if err := original.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := LoadStatsDump(path)
	if err != nil {
		t.Fatalf("LoadStatsDump failed: %v", err)
	}

	if loaded.Source != original.Source {
		t.Errorf("source: got %q, want %q", loaded.Source, original.Source)
	}
	if loaded.Metadata != original.Metadata {
		t.Errorf("metadata mismatch: %+v vs %+v", loaded.Metadata, original.Metadata)
	}
	if len(loaded.Frames) != len(original.Frames) {
		t.Fatalf("frame count: got %d, want %d", len(loaded.Frames), len(original.Frames))
	}
	for i := range original.Frames {
		if loaded.Frames[i] != original.Frames[i] {
			t.Errorf("frame %d mismatch: %+v vs %+v", i, loaded.Frames[i], original.Frames[i])
		}
	}
}

func TestLoadStatsDumpMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadStatsDump(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing dump")
	}
}

func TestLoadStatsDumpCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("[truncated"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := LoadStatsDump(path); err == nil {
		t.Fatal("expected an error for a corrupt dump")
	}
}

func TestDumpSourceHonorsSampleCap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dump.json")
	if err := fixtureDump().WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	frames, meta, err := DumpSource{}.ExtractFrameStats(path, DefaultSampleRate, 2)
	if err != nil {
		t.Fatalf("ExtractFrameStats failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("cap of 2 should truncate to 2 frames, got %d", len(frames))
	}
	if frames[0].Index != 0 || frames[1].Index != 10 {
		t.Errorf("truncation should keep the leading frames, got indices %d and %d", frames[0].Index, frames[1].Index)
	}
	if meta.FPS != 30 {
		t.Errorf("metadata fps: got %f, want 30", meta.FPS)
	}

	// Recorded dumps are already decimated: with no cap, every frame is
	// returned regardless of the sample rate argument.
	frames, _, err = DumpSource{}.ExtractFrameStats(path, 1.0, 0)
	if err != nil {
		t.Fatalf("ExtractFrameStats failed: %v", err)
	}
	if len(frames) != 4 {
		t.Errorf("uncapped replay should keep all 4 frames, got %d", len(frames))
	}
}
