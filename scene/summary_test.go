package scene

import (
	"strings"
	"testing"

	"clip-triage/video"
)

func TestSummarizeHeadline(t *testing.T) {
	t.Parallel()

	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0.0, PersonCount: 1, MovingObjects: 0, MotionMagnitude: 0.2},
		{Index: 1, Timestamp: 0.5, PersonCount: 2, MovingObjects: 1, MotionMagnitude: 0.4},
		{Index: 2, Timestamp: 1.0, PersonCount: 4, MovingObjects: 2, MotionMagnitude: 2.5},
		{Index: 3, Timestamp: 1.5, PersonCount: 3, MovingObjects: 1, MotionMagnitude: 0.9},
	}
	features := Aggregate(frames, video.Metadata{FPS: 2, DurationSeconds: 2})

	summary := Summarizer{}.Summarize(ClassRobbery, features, frames)

	if !strings.Contains(summary, "Predicted class: ROBBERY.") {
		t.Errorf("summary missing upper-cased label line:\n%s", summary)
	}
	if !strings.Contains(summary, "Analyzed duration: 2.0s across 4 sampled frames.") {
		t.Errorf("summary missing duration line:\n%s", summary)
	}
	if !strings.Contains(summary, "Robbery indicators:") {
		t.Errorf("summary missing robbery indicator sentence:\n%s", summary)
	}
	if !strings.Contains(summary, "Frames with crowds (>=3 people): 2.") {
		t.Errorf("summary miscounted crowded frames:\n%s", summary)
	}
}

func TestSummarizeTimelineAndSegments(t *testing.T) {
	t.Parallel()

	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0.0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.1},
		{Index: 1, Timestamp: 1.0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.1},
		{Index: 2, Timestamp: 2.0, PersonCount: 1, MovingObjects: 1, MotionMagnitude: 0.2},
		{Index: 3, Timestamp: 3.0, PersonCount: 3, MovingObjects: 2, MotionMagnitude: 3.0},
		{Index: 4, Timestamp: 4.0, PersonCount: 4, MovingObjects: 2, MotionMagnitude: 4.0},
		{Index: 5, Timestamp: 5.0, PersonCount: 1, MovingObjects: 1, MotionMagnitude: 0.3},
	}
	features := Aggregate(frames, video.Metadata{FPS: 1, DurationSeconds: 6})

	summary := Summarizer{}.Summarize(ClassAssault, features, frames)

	if !strings.Contains(summary, "Notable moments:") {
		t.Fatalf("summary missing timeline section:\n%s", summary)
	}
	if !strings.Contains(summary, "Spike in motion around t=4.0s") {
		t.Errorf("summary missing the strongest spike:\n%s", summary)
	}
	if !strings.Contains(summary, "Crowd present between t=3.0s and t=4.0s.") {
		t.Errorf("summary missing crowd window:\n%s", summary)
	}
	if !strings.Contains(summary, "Segment view:") {
		t.Fatalf("summary missing segment section:\n%s", summary)
	}
	for _, phase := range []string{"Early phase", "Middle phase", "Final phase"} {
		if !strings.Contains(summary, phase) {
			t.Errorf("summary missing %q:\n%s", phase, summary)
		}
	}
}

func TestSummarizeSingleCrowdFrame(t *testing.T) {
	t.Parallel()

	frames := []video.FrameStats{
		{Index: 0, Timestamp: 0.0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.1},
		{Index: 1, Timestamp: 1.0, PersonCount: 5, MovingObjects: 0, MotionMagnitude: 0.1},
		{Index: 2, Timestamp: 2.0, PersonCount: 0, MovingObjects: 0, MotionMagnitude: 0.1},
	}
	features := Aggregate(frames, video.Metadata{FPS: 1, DurationSeconds: 3})

	summary := Summarizer{}.Summarize(ClassNormal, features, frames)
	if !strings.Contains(summary, "Crowd detected near t=1.0s with ~5 people.") {
		t.Errorf("single crowd frame should report a point event:\n%s", summary)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0.0s"},
		{7.25, "7.2s"},
		{59.94, "59.9s"},
		{60, "01:00.0"},
		{75.3, "01:15.3"},
		{3605.5, "60:05.5"},
	}
	for _, tc := range cases {
		if got := formatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("formatTimestamp(%f) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
