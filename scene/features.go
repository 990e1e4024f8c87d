package scene

// Scene Feature Aggregation
//
// This package reduces a clip's per-frame measurement sequence into one
// fixed-shape descriptor used by the heuristic classifier:
//
// Ratio features (all in [0, 1], fractions of sampled frames):
//   - Crowd / presence ratios: frames with >= 3, >= 1 and >= 2 people
//   - Solo motion ratio: at most one person while motion exceeds the solo
//     threshold, the signature of an isolated actor
//   - Motion burst ratio: frames at or above the clip's own 75th-percentile
//     motion magnitude (dataset-adaptive, recomputed per clip)
//   - Active motion and motion presence ratios
//   - Calm ratio: blend of sub-threshold motion and inactivity
//
// Temporal features:
//   - Late motion ratio: active-motion fraction within the final third of
//     the clip
//   - Motion trend: mean motion of the final third minus the first third,
//     capturing escalation without a time-series model
//
// Summary statistics: mean/peak/std-dev of motion, mean/median person
// count, mean/max moving-object count.
//
// All thresholds are fixed constants except the burst threshold, which
// adapts to each clip. Aggregation never fails: an empty sequence yields
// the documented neutral record.

import (
	"github.com/montanaflynn/stats"

	"clip-triage/video"
)

const (
	calmThreshold       = 1.0
	soloMotionThreshold = 1.2
	activeThreshold     = 0.35
	burstPercentile     = 75.0
)

// VideoFeatures is the fixed-shape scene descriptor. Built once from a
// measurement sequence plus clip metadata; never mutated afterwards.
type VideoFeatures struct {
	AverageMotion       float64 `json:"average_motion"`
	PeakMotion          float64 `json:"peak_motion"`
	MotionStd           float64 `json:"motion_std"`
	CrowdRatio          float64 `json:"crowd_ratio"`
	SoloMotionRatio     float64 `json:"solo_motion_ratio"`
	MotionBurstRatio    float64 `json:"motion_burst_ratio"`
	PersonPresenceRatio float64 `json:"person_presence_ratio"`
	MultiPersonRatio    float64 `json:"multi_person_ratio"`
	MotionPresenceRatio float64 `json:"motion_presence_ratio"`
	ActiveMotionRatio   float64 `json:"active_motion_ratio"`
	LateMotionRatio     float64 `json:"late_motion_ratio"`
	MotionTrend         float64 `json:"motion_trend"`
	CalmRatio           float64 `json:"calm_ratio"`
	MedianPersonCount   float64 `json:"median_person_count"`
	MeanPersonCount     float64 `json:"mean_person_count"`
	AvgMovingObjects    float64 `json:"avg_moving_objects"`
	MaxMovingObjects    float64 `json:"max_moving_objects"`
	DurationSeconds     float64 `json:"duration_seconds"`
	FrameSamples        int     `json:"frame_samples"`
	FPSEstimate         float64 `json:"fps_estimate"`
}

// Aggregate reduces a measurement sequence into a VideoFeatures record.
// An empty sequence yields the neutral record: calm_ratio 1.0, every other
// ratio 0, with duration and fps copied from metadata.
func Aggregate(frames []video.FrameStats, meta video.Metadata) VideoFeatures {
	if len(frames) == 0 {
		return VideoFeatures{
			CalmRatio:       1.0,
			DurationSeconds: meta.DurationSeconds,
			FPSEstimate:     meta.FPS,
		}
	}

	motions := make([]float64, len(frames))
	people := make([]float64, len(frames))
	movers := make([]float64, len(frames))
	for i, frame := range frames {
		motions[i] = frame.MotionMagnitude
		people[i] = float64(frame.PersonCount)
		movers[i] = float64(frame.MovingObjects)
	}

	burstThreshold := motionBurstThreshold(motions)

	rawCalmRatio := fraction(len(frames), func(i int) bool { return motions[i] < calmThreshold })
	soloMotionRatio := fraction(len(frames), func(i int) bool {
		return people[i] <= 1 && motions[i] > soloMotionThreshold
	})
	crowdRatio := fraction(len(frames), func(i int) bool { return people[i] >= 3 })
	personPresenceRatio := fraction(len(frames), func(i int) bool { return people[i] >= 1 })
	multiPersonRatio := fraction(len(frames), func(i int) bool { return people[i] >= 2 })
	motionBurstRatio := fraction(len(frames), func(i int) bool { return motions[i] >= burstThreshold })
	motionPresenceRatio := fraction(len(frames), func(i int) bool { return movers[i] >= 1 })
	activeMotionRatio := fraction(len(frames), func(i int) bool { return motions[i] >= activeThreshold })
	calmRatio := 0.5*rawCalmRatio + 0.5*max(0, 1-activeMotionRatio)

	// Split the clip into thirds; the first and last segment drive the
	// escalation features.
	segment := len(frames) / 3
	if segment < 1 {
		segment = 1
	}
	earlyMotions := motions[:segment]
	lateMotions := motions[len(motions)-segment:]

	lateMotionRatio := activeMotionRatio
	if len(lateMotions) > 0 {
		lateMotionRatio = fraction(len(lateMotions), func(i int) bool { return lateMotions[i] >= activeThreshold })
	}
	motionTrend := 0.0
	if len(earlyMotions) > 0 && len(lateMotions) > 0 {
		motionTrend = mean(lateMotions) - mean(earlyMotions)
	}

	peakMotion, _ := stats.Max(motions)
	motionStd, _ := stats.StandardDeviation(motions)
	medianPeople, _ := stats.Median(people)
	maxMovers, _ := stats.Max(movers)

	return VideoFeatures{
		AverageMotion:       mean(motions),
		PeakMotion:          peakMotion,
		MotionStd:           motionStd,
		CrowdRatio:          crowdRatio,
		SoloMotionRatio:     soloMotionRatio,
		MotionBurstRatio:    motionBurstRatio,
		PersonPresenceRatio: personPresenceRatio,
		MultiPersonRatio:    multiPersonRatio,
		MotionPresenceRatio: motionPresenceRatio,
		ActiveMotionRatio:   activeMotionRatio,
		LateMotionRatio:     lateMotionRatio,
		MotionTrend:         motionTrend,
		CalmRatio:           calmRatio,
		MedianPersonCount:   medianPeople,
		MeanPersonCount:     mean(people),
		AvgMovingObjects:    mean(movers),
		MaxMovingObjects:    maxMovers,
		DurationSeconds:     meta.DurationSeconds,
		FrameSamples:        len(frames),
		FPSEstimate:         meta.FPS,
	}
}

// motionBurstThreshold is the clip-adaptive "high motion" cutoff: the 75th
// percentile of the motion series. A single-element series is its own
// percentile.
func motionBurstThreshold(motions []float64) float64 {
	if len(motions) < 2 {
		return motions[0]
	}
	threshold, err := stats.Percentile(motions, burstPercentile)
	if err != nil {
		return motions[0]
	}
	return threshold
}

func fraction(n int, pred func(i int) bool) float64 {
	if n == 0 {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		if pred(i) {
			count++
		}
	}
	return float64(count) / float64(n)
}

func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}
