package scene

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"clip-triage/utils"
)

// PrototypeSample is one labelled reference vector. Source, when set, is
// unique within a store: re-adding a sample for the same source replaces
// the earlier one regardless of label.
type PrototypeSample struct {
	Label         string    `json:"label"`
	Vector        []float64 `json:"vector"`
	Source        string    `json:"source,omitempty"`
	SchemaVersion int       `json:"schema_version,omitempty"`
}

// StoreStats exposes metadata about the loaded sample collection.
type StoreStats struct {
	SampleCount   int              `json:"sampleCount"`
	LabelCount    int              `json:"labelCount"`
	Labels        []StoreLabelStat `json:"labels"`
	SchemaVersion int              `json:"schemaVersion"`
}

// StoreLabelStat summarises sample density per label.
type StoreLabelStat struct {
	Label   string `json:"label"`
	Samples int    `json:"samples"`
}

// PrototypeStore is a JSON-file backed collection of prototype samples.
// Loading is fail-soft: a missing or corrupt file behaves as an empty
// store, because classification must stay possible without prototypes.
type PrototypeStore struct {
	mu      sync.RWMutex
	path    string
	samples []PrototypeSample
}

// NewPrototypeStore opens (or lazily creates) the store at path.
func NewPrototypeStore(path string) *PrototypeStore {
	store := &PrototypeStore{path: filepath.Clean(path)}
	store.load()
	return store
}

func (s *PrototypeStore) load() {
	logger := utils.GetLogger()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.samples = nil
		return
	}

	var raw []PrototypeSample
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("prototype store unreadable, starting empty",
			slog.String("path", s.path),
			slog.Any("error", err))
		s.samples = nil
		return
	}

	samples := make([]PrototypeSample, 0, len(raw))
	skipped := 0
	for _, sample := range raw {
		if sample.Label == "" || len(sample.Vector) != VectorLen() {
			skipped++
			continue
		}
		// Entries persisted before versioning carry no schema_version;
		// accept them only while their length still matches the schema.
		if sample.SchemaVersion != 0 && sample.SchemaVersion != VectorSchemaVersion {
			skipped++
			continue
		}
		sample.SchemaVersion = VectorSchemaVersion
		samples = append(samples, sample)
	}
	if skipped > 0 {
		logger.Warn("skipped incompatible prototype samples",
			slog.String("path", s.path),
			slog.Int("skipped", skipped),
			slog.Int("schemaVersion", VectorSchemaVersion))
	}
	s.samples = samples
}

// AddSample encodes the feature record, replaces any sample sharing the
// same source and persists the collection synchronously.
func (s *PrototypeStore) AddSample(label string, features VideoFeatures, source string) error {
	if label == "" {
		return fmt.Errorf("label is required")
	}
	vector := BuildFeatureVector(features)

	s.mu.Lock()
	defer s.mu.Unlock()

	if source != "" {
		kept := make([]PrototypeSample, 0, len(s.samples))
		for _, sample := range s.samples {
			if sample.Source != source {
				kept = append(kept, sample)
			}
		}
		s.samples = kept
	}

	s.samples = append(s.samples, PrototypeSample{
		Label:         label,
		Vector:        vector,
		Source:        source,
		SchemaVersion: VectorSchemaVersion,
	})

	return s.save()
}

// save writes the collection via a temp file and rename so readers never
// observe a partial store. Callers must hold the write lock.
func (s *PrototypeStore) save() error {
	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prototype samples: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write prototype samples: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace prototype store: %w", err)
	}
	return nil
}

// Samples returns a read-only copy of the current collection in insertion
// order.
func (s *PrototypeStore) Samples() []PrototypeSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := make([]PrototypeSample, len(s.samples))
	for i, sample := range s.samples {
		vector := make([]float64, len(sample.Vector))
		copy(vector, sample.Vector)
		sample.Vector = vector
		samples[i] = sample
	}
	return samples
}

// Len reports the number of stored samples.
func (s *PrototypeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Path returns the backing file location.
func (s *PrototypeStore) Path() string {
	return s.path
}

// Stats summarises the store for status endpoints and tooling.
func (s *PrototypeStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make(map[string]int)
	for _, sample := range s.samples {
		buckets[sample.Label]++
	}

	labels := make([]StoreLabelStat, 0, len(buckets))
	for label, count := range buckets {
		labels = append(labels, StoreLabelStat{Label: label, Samples: count})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Label < labels[j].Label })

	return StoreStats{
		SampleCount:   len(s.samples),
		LabelCount:    len(buckets),
		Labels:        labels,
		SchemaVersion: VectorSchemaVersion,
	}
}
