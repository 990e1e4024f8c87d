package scene

import (
	"math"
	"testing"

	"clip-triage/video"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateEmptyInput(t *testing.T) {
	t.Parallel()

	meta := video.Metadata{FPS: 30, FrameCount: 0, DurationSeconds: 12.5}
	features := Aggregate(nil, meta)

	if features.FrameSamples != 0 {
		t.Fatalf("expected 0 frame samples, got %d", features.FrameSamples)
	}
	if !almostEqual(features.CalmRatio, 1.0) {
		t.Errorf("empty input should yield calm_ratio 1.0, got %f", features.CalmRatio)
	}
	if !almostEqual(features.DurationSeconds, 12.5) {
		t.Errorf("duration not copied from metadata: %f", features.DurationSeconds)
	}
	if !almostEqual(features.FPSEstimate, 30) {
		t.Errorf("fps not copied from metadata: %f", features.FPSEstimate)
	}
	for name, value := range map[string]float64{
		"average_motion":        features.AverageMotion,
		"crowd_ratio":           features.CrowdRatio,
		"motion_burst_ratio":    features.MotionBurstRatio,
		"active_motion_ratio":   features.ActiveMotionRatio,
		"person_presence_ratio": features.PersonPresenceRatio,
	} {
		if value != 0 {
			t.Errorf("%s should be 0 for empty input, got %f", name, value)
		}
	}
}

func TestAggregateKnownSequence(t *testing.T) {
	t.Parallel()

	// Constant motion keeps the burst percentile independent of the
	// interpolation method: every frame sits exactly at the threshold.
	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 2.0},
		{Index: 1, Timestamp: 1, PersonCount: 1, MovingObjects: 1, MotionMagnitude: 2.0},
		{Index: 2, Timestamp: 2, PersonCount: 2, MovingObjects: 1, MotionMagnitude: 2.0},
		{Index: 3, Timestamp: 3, PersonCount: 3, MovingObjects: 2, MotionMagnitude: 2.0},
		{Index: 4, Timestamp: 4, PersonCount: 3, MovingObjects: 0, MotionMagnitude: 2.0},
		{Index: 5, Timestamp: 5, PersonCount: 4, MovingObjects: 3, MotionMagnitude: 2.0},
	}
	meta := video.Metadata{FPS: 3, FrameCount: 6, DurationSeconds: 2.0}

	features := Aggregate(frames, meta)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"average_motion", features.AverageMotion, 2.0},
		{"peak_motion", features.PeakMotion, 2.0},
		{"motion_std", features.MotionStd, 0.0},
		{"crowd_ratio", features.CrowdRatio, 0.5},
		{"solo_motion_ratio", features.SoloMotionRatio, 2.0 / 6.0},
		{"motion_burst_ratio", features.MotionBurstRatio, 1.0},
		{"person_presence_ratio", features.PersonPresenceRatio, 5.0 / 6.0},
		{"multi_person_ratio", features.MultiPersonRatio, 4.0 / 6.0},
		{"motion_presence_ratio", features.MotionPresenceRatio, 4.0 / 6.0},
		{"active_motion_ratio", features.ActiveMotionRatio, 1.0},
		{"late_motion_ratio", features.LateMotionRatio, 1.0},
		{"motion_trend", features.MotionTrend, 0.0},
		{"calm_ratio", features.CalmRatio, 0.0},
		{"median_person_count", features.MedianPersonCount, 2.5},
		{"mean_person_count", features.MeanPersonCount, 13.0 / 6.0},
		{"avg_moving_objects", features.AvgMovingObjects, 7.0 / 6.0},
		{"max_moving_objects", features.MaxMovingObjects, 3.0},
	}
	for _, check := range checks {
		if !almostEqual(check.got, check.want) {
			t.Errorf("%s: got %f, want %f", check.name, check.got, check.want)
		}
	}

	if features.FrameSamples != 6 {
		t.Errorf("frame_samples: got %d, want 6", features.FrameSamples)
	}
}

func TestAggregateSingleFrame(t *testing.T) {
	t.Parallel()

	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0, PersonCount: 1, MovingObjects: 1, MotionMagnitude: 0.8},
	}
	features := Aggregate(frames, video.Metadata{FPS: 24})

	// A single frame is its own burst threshold, so the ratio is 1.
	if !almostEqual(features.MotionBurstRatio, 1.0) {
		t.Errorf("single frame burst ratio: got %f, want 1.0", features.MotionBurstRatio)
	}
	if !almostEqual(features.LateMotionRatio, 1.0) {
		t.Errorf("single frame late motion ratio: got %f, want 1.0", features.LateMotionRatio)
	}
	if !almostEqual(features.MotionTrend, 0.0) {
		t.Errorf("single frame trend: got %f, want 0", features.MotionTrend)
	}
}

func TestAggregateRatiosBounded(t *testing.T) {
	t.Parallel()

	frames := []video.FrameStats{
		{PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.0},
		{PersonCount: 5, MovingObjects: 7, MotionMagnitude: 9.4},
		{PersonCount: 1, MovingObjects: 2, MotionMagnitude: 1.3},
		{PersonCount: 2, MovingObjects: 0, MotionMagnitude: 0.2},
		{PersonCount: 8, MovingObjects: 4, MotionMagnitude: 4.7},
	}
	features := Aggregate(frames, video.Metadata{FPS: 30, DurationSeconds: 5})

	ratios := map[string]float64{
		"crowd_ratio":           features.CrowdRatio,
		"solo_motion_ratio":     features.SoloMotionRatio,
		"motion_burst_ratio":    features.MotionBurstRatio,
		"person_presence_ratio": features.PersonPresenceRatio,
		"multi_person_ratio":    features.MultiPersonRatio,
		"motion_presence_ratio": features.MotionPresenceRatio,
		"active_motion_ratio":   features.ActiveMotionRatio,
		"late_motion_ratio":     features.LateMotionRatio,
		"calm_ratio":            features.CalmRatio,
	}
	for name, value := range ratios {
		if value < 0 || value > 1 {
			t.Errorf("%s out of [0,1]: %f", name, value)
		}
	}
}

func TestAggregateEscalationTrend(t *testing.T) {
	t.Parallel()

	// Quiet first third, energetic last third.
	frames := []video.FrameStats{
		{MotionMagnitude: 0.1}, {MotionMagnitude: 0.1}, {MotionMagnitude: 0.1},
		{MotionMagnitude: 1.0}, {MotionMagnitude: 1.5}, {MotionMagnitude: 2.0},
		{MotionMagnitude: 3.0}, {MotionMagnitude: 3.5}, {MotionMagnitude: 4.0},
	}
	features := Aggregate(frames, video.Metadata{FPS: 3})

	if features.MotionTrend <= 0 {
		t.Fatalf("escalating clip should have positive trend, got %f", features.MotionTrend)
	}
	if !almostEqual(features.MotionTrend, 3.5-0.1) {
		t.Errorf("motion_trend: got %f, want %f", features.MotionTrend, 3.5-0.1)
	}
	if !almostEqual(features.LateMotionRatio, 1.0) {
		t.Errorf("late_motion_ratio: got %f, want 1.0", features.LateMotionRatio)
	}
}
