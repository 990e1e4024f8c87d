package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"clip-triage/video"
)

func sampleFeatures(motion float64) VideoFeatures {
	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0, PersonCount: 1, MovingObjects: 1, MotionMagnitude: motion},
		{Index: 1, Timestamp: 1, PersonCount: 2, MovingObjects: 1, MotionMagnitude: motion},
		{Index: 2, Timestamp: 2, PersonCount: 1, MovingObjects: 0, MotionMagnitude: motion},
	}
	return Aggregate(frames, video.Metadata{FPS: 3, DurationSeconds: 1})
}

func TestPrototypeStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prototypes.json")
	store := NewPrototypeStore(path)

	if err := store.AddSample(ClassTheft, sampleFeatures(1.5), "theft_01.mp4"); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}
	if err := store.AddSample(ClassNormal, sampleFeatures(0.1), "normal_01.mp4"); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}

	reloaded := NewPrototypeStore(path)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded store has %d samples, want 2", reloaded.Len())
	}

	original := store.Samples()
	loaded := reloaded.Samples()
	for i := range original {
		if original[i].Label != loaded[i].Label || original[i].Source != loaded[i].Source {
			t.Errorf("sample %d mismatch after reload: %+v vs %+v", i, original[i], loaded[i])
		}
		if len(loaded[i].Vector) != VectorLen() {
			t.Errorf("sample %d vector length %d, want %d", i, len(loaded[i].Vector), VectorLen())
		}
		if loaded[i].SchemaVersion != VectorSchemaVersion {
			t.Errorf("sample %d schema version %d, want %d", i, loaded[i].SchemaVersion, VectorSchemaVersion)
		}
	}
}

func TestPrototypeStoreReplacesBySource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prototypes.json")
	store := NewPrototypeStore(path)

	if err := store.AddSample(ClassTheft, sampleFeatures(1.5), "clip.mp4"); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}
	// Re-training the same clip under a different label replaces the entry.
	if err := store.AddSample(ClassAssault, sampleFeatures(3.0), "clip.mp4"); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("same-source samples should replace, store has %d", store.Len())
	}
	if got := store.Samples()[0].Label; got != ClassAssault {
		t.Errorf("replacement kept stale label %s", got)
	}
}

func TestPrototypeStoreMissingFile(t *testing.T) {
	t.Parallel()

	store := NewPrototypeStore(filepath.Join(t.TempDir(), "absent.json"))
	if store.Len() != 0 {
		t.Fatalf("missing file should load as empty store, got %d samples", store.Len())
	}
}

func TestPrototypeStoreCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := NewPrototypeStore(path)
	if store.Len() != 0 {
		t.Fatalf("corrupt file should load as empty store, got %d samples", store.Len())
	}

	// The store must stay writable after a corrupt load.
	if err := store.AddSample(ClassNormal, sampleFeatures(0.1), "normal.mp4"); err != nil {
		t.Fatalf("AddSample after corrupt load failed: %v", err)
	}
	if NewPrototypeStore(path).Len() != 1 {
		t.Errorf("recovered store did not persist the new sample")
	}
}

func TestPrototypeStoreSkipsIncompatibleSamples(t *testing.T) {
	t.Parallel()

	goodVector := BuildFeatureVector(sampleFeatures(1.0))
	fixture := []PrototypeSample{
		{Label: ClassTheft, Vector: goodVector, SchemaVersion: VectorSchemaVersion},
		{Label: ClassNormal, Vector: goodVector},                            // legacy, no version: kept
		{Label: ClassAssault, Vector: goodVector, SchemaVersion: 99},       // foreign version: skipped
		{Label: "", Vector: goodVector, SchemaVersion: VectorSchemaVersion}, // no label: skipped
		{Label: ClassRobbery, Vector: []float64{1, 2, 3}},                  // wrong length: skipped
	}

	path := filepath.Join(t.TempDir(), "mixed.json")
	data, err := json.Marshal(fixture)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	store := NewPrototypeStore(path)
	if store.Len() != 2 {
		t.Fatalf("expected 2 compatible samples, got %d", store.Len())
	}
	for _, sample := range store.Samples() {
		if sample.SchemaVersion != VectorSchemaVersion {
			t.Errorf("loaded sample %q carries version %d, want %d", sample.Label, sample.SchemaVersion, VectorSchemaVersion)
		}
		if sample.Label != ClassTheft && sample.Label != ClassNormal {
			t.Errorf("unexpected sample %q survived the load", sample.Label)
		}
	}
}

func TestPrototypeStoreStats(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prototypes.json")
	store := NewPrototypeStore(path)

	for i, label := range []string{ClassTheft, ClassTheft, ClassNormal} {
		source := filepath.Join("clips", label+"_"+string(rune('a'+i))+".mp4")
		if err := store.AddSample(label, sampleFeatures(float64(i)), source); err != nil {
			t.Fatalf("AddSample failed: %v", err)
		}
	}

	stats := store.Stats()
	if stats.SampleCount != 3 || stats.LabelCount != 2 {
		t.Fatalf("stats: got %d samples / %d labels, want 3 / 2", stats.SampleCount, stats.LabelCount)
	}
	if stats.SchemaVersion != VectorSchemaVersion {
		t.Errorf("stats schema version %d, want %d", stats.SchemaVersion, VectorSchemaVersion)
	}
	// Labels are sorted alphabetically.
	if stats.Labels[0].Label != ClassNormal || stats.Labels[0].Samples != 1 {
		t.Errorf("unexpected first label bucket: %+v", stats.Labels[0])
	}
	if stats.Labels[1].Label != ClassTheft || stats.Labels[1].Samples != 2 {
		t.Errorf("unexpected second label bucket: %+v", stats.Labels[1])
	}
}
