package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"clip-triage/analyses"
	"clip-triage/db"
	"clip-triage/models"
	"clip-triage/narrate"
	"clip-triage/scene"
	"clip-triage/utils"
	"clip-triage/video"

	"github.com/mdobak/go-xerrors"
)

const defaultMaxSamples = 240

func defaultStorePath() string {
	return utils.GetEnv("PROTOTYPE_STORE_PATH", "trained_samples.json")
}

// loadClipStats resolves a CLI source argument to frame measurements. A .json
// argument is read as a measurement dump directly; anything else is treated as
// a clip path whose sidecar dump ("<clip>.stats.json") holds the measurements.
func loadClipStats(source string, maxSamples int) (video.StatsDump, string, error) {
	if strings.EqualFold(filepath.Ext(source), ".json") {
		dump, err := video.LoadStatsDump(source)
		return dump, source, err
	}

	resolved, err := video.FindVideoFile(source)
	if err != nil {
		return video.StatsDump{}, "", err
	}

	sidecar := resolved + ".stats.json"
	if _, err := os.Stat(sidecar); err != nil {
		return video.StatsDump{}, "", fmt.Errorf(
			"no frame measurements for %s: expected sidecar dump at %s", resolved, sidecar)
	}

	frames, meta, err := video.DumpSource{}.ExtractFrameStats(sidecar, video.DefaultSampleRate, maxSamples)
	if err != nil {
		return video.StatsDump{}, "", err
	}
	return video.StatsDump{Source: resolved, Metadata: meta, Frames: frames}, resolved, nil
}

func runAnalyze(args []string) {
	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	storePath := analyzeCmd.String("store", defaultStorePath(), "Path to the prototype store")
	maxSamples := analyzeCmd.Int("max-samples", defaultMaxSamples, "Maximum sampled frames per clip")
	trainLabel := analyzeCmd.String("train-label", "", "Also store this clip as a prototype under the given label")
	filenameHints := analyzeCmd.Bool("filename-hints", false, "Allow filename keywords to override the predicted label")
	dumpStats := analyzeCmd.String("dump-stats", "", "Write the sampled frame measurements to this JSON file")
	doNarrate := analyzeCmd.Bool("narrate", false, "Generate a Gemini narrative for the result")
	analyzeCmd.Parse(args)

	if analyzeCmd.NArg() < 1 {
		log.Fatal("analyze requires a clip path or measurement dump")
	}

	logger := utils.GetLogger()
	ctx := context.Background()

	dump, resolved, err := loadClipStats(analyzeCmd.Arg(0), *maxSamples)
	if err != nil {
		log.Fatalf("failed to load frame measurements: %v", err)
	}

	store := scene.NewPrototypeStore(*storePath)
	opts := []scene.ClassifierOption{scene.WithPrototypes(store.Samples())}
	if *filenameHints {
		opts = append(opts, scene.WithFilenameHints())
	}
	classifier := scene.NewClassifier(opts...)

	started := time.Now()
	features := scene.Aggregate(dump.Frames, dump.Metadata)
	result, err := classifier.Classify(features, resolved)
	if err != nil {
		log.Fatalf("classification failed: %v", err)
	}
	latency := time.Since(started).Seconds() * 1000

	summary := scene.Summarizer{}.Summarize(result.Label, features, dump.Frames)
	fmt.Println(summary)
	fmt.Println()
	fmt.Println("Scores:")
	printScores(result.Scores)
	fmt.Printf("Explanation: %s\n", result.Explanation)

	if *dumpStats != "" {
		out := video.StatsDump{Source: resolved, Metadata: dump.Metadata, Frames: dump.Frames}
		if err := out.WriteFile(*dumpStats); err != nil {
			logger.ErrorContext(ctx, "failed to write measurement dump", slog.Any("error", xerrors.New(err)))
		} else {
			fmt.Printf("Wrote frame measurements to %s\n", *dumpStats)
		}
	}

	if *trainLabel != "" {
		if err := store.AddSample(*trainLabel, features, filepath.Base(resolved)); err != nil {
			logger.ErrorContext(ctx, "failed to store prototype", slog.Any("error", xerrors.New(err)))
		} else {
			fmt.Printf("Stored prototype %q from %s (%d samples total)\n",
				*trainLabel, filepath.Base(resolved), store.Len())
		}
	}

	if strings.EqualFold(utils.GetEnv("TRIAGE_PERSIST_ANALYSES", "false"), "true") {
		persistAnalysisRecord(buildAnalysisRecord(resolved, result, features, latency))
	}

	if *doNarrate {
		narrator, err := narrate.NewGeminiNarrator()
		if err != nil {
			logger.ErrorContext(ctx, "narration unavailable", slog.Any("error", xerrors.New(err)))
			return
		}
		defer narrator.Close()

		narrative, err := narrator.NarrateAnalysis(result.Label, result.Explanation, summary)
		if err != nil {
			logger.ErrorContext(ctx, "narration failed", slog.Any("error", xerrors.New(err)))
			return
		}
		fmt.Println()
		fmt.Println("Narrative:")
		fmt.Println(narrative)
	}
}

func runTrain(args []string) {
	trainCmd := flag.NewFlagSet("train", flag.ExitOnError)
	storePath := trainCmd.String("store", defaultStorePath(), "Path to the prototype store")
	label := trainCmd.String("label", "", "Label for all given clips (default: inferred from filenames)")
	maxSamples := trainCmd.Int("max-samples", defaultMaxSamples, "Maximum sampled frames per clip")
	trainCmd.Parse(args)

	if trainCmd.NArg() < 1 {
		log.Fatal("train requires at least one clip path or measurement dump")
	}

	known := scene.DefaultClasses()
	if *label != "" && !containsLabel(known, *label) {
		log.Fatalf("unknown label %q (expected one of %s)", *label, strings.Join(known, ", "))
	}

	store := scene.NewPrototypeStore(*storePath)
	added := 0
	for _, arg := range trainCmd.Args() {
		dump, resolved, err := loadClipStats(arg, *maxSamples)
		if err != nil {
			log.Printf("skipping %s: %v", arg, err)
			continue
		}

		clipLabel := *label
		if clipLabel == "" {
			inferred, ok := scene.MatchFilenameLabel(resolved)
			if !ok {
				log.Printf("skipping %s: no -label given and filename carries no known class keyword", arg)
				continue
			}
			clipLabel = inferred
		}

		features := scene.Aggregate(dump.Frames, dump.Metadata)
		if features.FrameSamples == 0 {
			log.Printf("skipping %s: no frames in measurement dump", arg)
			continue
		}

		if err := store.AddSample(clipLabel, features, filepath.Base(resolved)); err != nil {
			log.Printf("failed to store %s: %v", arg, err)
			continue
		}
		fmt.Printf("Stored %q prototype from %s\n", clipLabel, filepath.Base(resolved))
		added++
	}

	stats := store.Stats()
	fmt.Printf("\nPrototype store: %s (%d samples, +%d this run)\n", store.Path(), stats.SampleCount, added)
	for _, bucket := range stats.Labels {
		fmt.Printf("  %-14s %d\n", bucket.Label, bucket.Samples)
	}
}

func runHistory(args []string) {
	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	limit := historyCmd.Int("limit", 20, "Maximum number of runs to show")
	historyCmd.Parse(args)

	records, counts, err := loadHistory(*limit)
	if err != nil {
		log.Fatalf("failed to load analysis history: %v", err)
	}

	if len(records) == 0 {
		fmt.Println("No stored analyses yet.")
		return
	}

	for _, record := range records {
		fmt.Printf("%s  %-14s %s (%.0fms, %d frames)\n",
			record.Timestamp.Format("2006-01-02 15:04:05"),
			record.Label, record.Source, record.LatencyMs, record.FrameSamples)
	}

	if len(counts) > 0 {
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		fmt.Println("\nLabel totals:")
		for _, label := range labels {
			fmt.Printf("  %-14s %d\n", label, counts[label])
		}
	}
}

// loadHistory prefers the configured database and falls back to the local
// analyses JSON file when no database is reachable.
func loadHistory(limit int) ([]models.Analysis, map[string]int, error) {
	client, err := db.NewDBClient()
	if err == nil {
		defer client.Close()

		records, err := client.RecentAnalyses(limit)
		if err != nil {
			return nil, nil, err
		}
		counts, err := client.LabelCounts()
		if err != nil {
			return nil, nil, err
		}
		return records, counts, nil
	}
	log.Printf("database unavailable (%v), reading local analyses file", err)

	records, err := analyses.LoadAnalyses()
	if err != nil {
		return nil, nil, err
	}

	counts := make(map[string]int)
	for _, record := range records {
		counts[record.Label]++
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, counts, nil
}

func runServe(args []string) {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	protocol := serveCmd.String("proto", "http", "Protocol to use (http or https)")
	port := serveCmd.String("p", "5000", "Port to use")
	serveCmd.Parse(args)
	serve(*protocol, *port)
}

func buildAnalysisRecord(source string, result scene.ClassificationResult, features scene.VideoFeatures, latencyMs float64) *models.Analysis {
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		scores = []byte("{}")
	}
	return &models.Analysis{
		Timestamp:       time.Now(),
		Source:          source,
		Label:           result.Label,
		Scores:          scores,
		Explanation:     result.Explanation,
		FrameSamples:    features.FrameSamples,
		DurationSeconds: features.DurationSeconds,
		LatencyMs:       latencyMs,
	}
}

func persistAnalysisRecord(record *models.Analysis) {
	client, err := db.NewDBClient()
	if err != nil {
		log.Printf("database unavailable (%v), saving to local analyses file", err)
		if err := analyses.SaveAnalysis(record); err != nil {
			log.Printf("failed to save analysis: %v", err)
		}
		return
	}
	defer client.Close()

	if err := client.SaveAnalysis(record); err != nil {
		log.Printf("failed to save analysis: %v", err)
	}
}

func printScores(scores map[string]float64) {
	type scored struct {
		label string
		value float64
	}
	ranked := make([]scored, 0, len(scores))
	for label, value := range scores {
		ranked = append(ranked, scored{label, value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value == ranked[j].value {
			return ranked[i].label < ranked[j].label
		}
		return ranked[i].value > ranked[j].value
	})
	for _, entry := range ranked {
		fmt.Printf("  %-14s %.3f\n", entry.label, entry.value)
	}
}

func containsLabel(labels []string, label string) bool {
	for _, known := range labels {
		if known == label {
			return true
		}
	}
	return false
}
