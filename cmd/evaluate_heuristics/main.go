package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clip-triage/scene"
	"clip-triage/video"
)

// Evaluates the heuristic classifier against a directory of labelled
// measurement dumps. Expected labels come from filename keywords or the
// parent directory name; filename hints are never passed to the classifier,
// so the score formulas are evaluated on their own.

type classMetrics struct {
	total         int
	correct       int
	misclassified []misclassification
}

type misclassification struct {
	file      string
	predicted string
}

func main() {
	inputDir := flag.String("dir", "train_data", "Directory containing labelled measurement dumps")
	storePath := flag.String("store", "", "Optional prototype store to apply the similarity bonus")
	flag.Parse()

	files, err := collectDumpFiles(*inputDir)
	if err != nil {
		log.Fatalf("failed to list directory: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no measurement dumps found in %s", *inputDir)
	}

	var opts []scene.ClassifierOption
	if *storePath != "" {
		store := scene.NewPrototypeStore(*storePath)
		log.Printf("Applying prototype bonus from %s (%d samples)", store.Path(), store.Len())
		opts = append(opts, scene.WithPrototypes(store.Samples()))
	}
	classifier := scene.NewClassifier(opts...)

	metrics := make(map[string]*classMetrics)
	confusion := make(map[string]map[string]int)
	evaluated := 0

	for _, filePath := range files {
		expected, ok := inferLabel(filePath)
		if !ok {
			log.Printf("Skipping %s: cannot infer the expected label", filepath.Base(filePath))
			continue
		}

		dump, err := video.LoadStatsDump(filePath)
		if err != nil {
			log.Printf("Skipping %s: %v", filepath.Base(filePath), err)
			continue
		}

		features := scene.Aggregate(dump.Frames, dump.Metadata)
		result, err := classifier.Classify(features, "")
		if err != nil {
			log.Printf("Skipping %s: %v", filepath.Base(filePath), err)
			continue
		}

		entry := metrics[expected]
		if entry == nil {
			entry = &classMetrics{}
			metrics[expected] = entry
		}
		entry.total++
		if result.Label == expected {
			entry.correct++
		} else {
			entry.misclassified = append(entry.misclassified, misclassification{
				file:      filepath.Base(filePath),
				predicted: result.Label,
			})
		}

		if confusion[expected] == nil {
			confusion[expected] = make(map[string]int)
		}
		confusion[expected][result.Label]++
		evaluated++
	}

	if evaluated == 0 {
		log.Fatalf("no dumps could be evaluated")
	}

	printReport(metrics, confusion, evaluated)
}

func printReport(metrics map[string]*classMetrics, confusion map[string]map[string]int, evaluated int) {
	labels := make([]string, 0, len(metrics))
	totalCorrect := 0
	for label, entry := range metrics {
		labels = append(labels, label)
		totalCorrect += entry.correct
	}
	sort.Strings(labels)

	fmt.Printf("\nEvaluated %d clips, overall accuracy %.1f%%\n\n",
		evaluated, 100*float64(totalCorrect)/float64(evaluated))

	fmt.Println("Per-class accuracy:")
	for _, label := range labels {
		entry := metrics[label]
		fmt.Printf("  %-14s %3d/%-3d (%.1f%%)\n",
			label, entry.correct, entry.total, 100*float64(entry.correct)/float64(entry.total))
		for _, miss := range entry.misclassified {
			fmt.Printf("    x %s -> %s\n", miss.file, miss.predicted)
		}
	}

	fmt.Println("\nConfusion matrix (expected -> predicted):")
	for _, expected := range labels {
		row := confusion[expected]
		predicted := make([]string, 0, len(row))
		for label := range row {
			predicted = append(predicted, label)
		}
		sort.Strings(predicted)

		parts := make([]string, 0, len(predicted))
		for _, label := range predicted {
			parts = append(parts, fmt.Sprintf("%s=%d", label, row[label]))
		}
		fmt.Printf("  %-14s %s\n", expected, strings.Join(parts, "  "))
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
