package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clip-triage/scene"
	"clip-triage/video"
)

// Rebuilds the prototype store from a directory of measurement dumps. Labels
// come from filename keywords ("robbery_cam3.json") or from the parent
// directory name ("train_data/theft/clip01.json").
func main() {
	inputDir := flag.String("dir", "train_data", "Directory containing measurement dump JSON files")
	outputFile := flag.String("store", "trained_samples.json", "Prototype store to rebuild")
	flag.Parse()

	files, err := collectDumpFiles(*inputDir)
	if err != nil {
		log.Fatalf("failed to list directory: %v", err)
	}

	if len(files) == 0 {
		log.Fatalf("no measurement dumps found in %s", *inputDir)
	}

	log.Printf("Found %d measurement dumps in %s\n", len(files), *inputDir)
	log.Println("Building prototypes...")

	// Start from an empty store so stale samples do not survive a rebuild.
	if err := os.Remove(*outputFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to reset store file: %v", err)
	}
	store := scene.NewPrototypeStore(*outputFile)

	added := 0
	for _, filePath := range files {
		label, ok := inferLabel(filePath)
		if !ok {
			log.Printf("Skipping %s: cannot infer a known label", filepath.Base(filePath))
			continue
		}
		log.Printf("Processing: %s (label: %s)", filepath.Base(filePath), label)

		dump, err := video.LoadStatsDump(filePath)
		if err != nil {
			log.Printf("  ERROR: %v", err)
			continue
		}

		features := scene.Aggregate(dump.Frames, dump.Metadata)
		if features.FrameSamples == 0 {
			log.Printf("  ERROR: dump holds no frames")
			continue
		}

		if err := store.AddSample(label, features, filepath.Base(filePath)); err != nil {
			log.Printf("  ERROR: %v", err)
			continue
		}
		added++
	}

	if added == 0 {
		log.Fatalf("no prototypes were created")
	}

	stats := store.Stats()
	log.Printf("\nRebuilt %s with %d prototypes", store.Path(), stats.SampleCount)
	for _, bucket := range stats.Labels {
		log.Printf("  %-14s %d", bucket.Label, bucket.Samples)
	}
}

func collectDumpFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// inferLabel checks the filename first, then the parent directory name.
func inferLabel(path string) (string, bool) {
	if label, ok := scene.MatchFilenameLabel(path); ok {
		return label, true
	}

	parent := strings.ToLower(filepath.Base(filepath.Dir(path)))
	parent = strings.ReplaceAll(parent, "_", " ")
	for _, class := range scene.DefaultClasses() {
		if parent == class {
			return class, true
		}
	}
	return "", false
}
