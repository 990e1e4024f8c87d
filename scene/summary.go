package scene

import (
	"fmt"
	"sort"
	"strings"

	"clip-triage/video"
)

// Summarizer renders a plain-text narration of one analyzed clip: headline
// statistics, per-label indicators, notable moments and a three-segment
// timeline view.
type Summarizer struct{}

// Summarize builds the narration for a labelled clip.
func (Summarizer) Summarize(label string, features VideoFeatures, frames []video.FrameStats) string {
	var highMotion []video.FrameStats
	var crowded []video.FrameStats
	for _, frame := range frames {
		if frame.MotionMagnitude > features.AverageMotion*1.5 {
			highMotion = append(highMotion, frame)
		}
		if frame.PersonCount >= 3 {
			crowded = append(crowded, frame)
		}
	}

	lines := []string{
		fmt.Sprintf("Predicted class: %s.", strings.ToUpper(label)),
		fmt.Sprintf("Analyzed duration: %.1fs across %d sampled frames.", features.DurationSeconds, features.FrameSamples),
		fmt.Sprintf("Average detected people per frame: %.1f (median %.1f).", features.MeanPersonCount, features.MedianPersonCount),
		fmt.Sprintf("Moving objects per frame: avg %.1f (max %.0f).", features.AvgMovingObjects, features.MaxMovingObjects),
		fmt.Sprintf("Motion: avg %.2f, peak %.2f, calm ratio %.2f.", features.AverageMotion, features.PeakMotion, features.CalmRatio),
		fmt.Sprintf("Active motion ratio: %.2f, late-scene activity: %.2f.", features.ActiveMotionRatio, features.LateMotionRatio),
		fmt.Sprintf("Frames with crowds (>=3 people): %d.", len(crowded)),
		fmt.Sprintf("Frames with spikes in motion: %d.", len(highMotion)),
	}

	lines = append(lines, describeActivity(label, features, len(highMotion), len(crowded)))

	if timeline := describeTimeline(highMotion, crowded); len(timeline) > 0 {
		lines = append(lines, "Notable moments:")
		for _, entry := range timeline {
			lines = append(lines, "  - "+entry)
		}
	}

	if segments := describeSegments(frames); len(segments) > 0 {
		lines = append(lines, "Segment view:")
		for _, entry := range segments {
			lines = append(lines, "  - "+entry)
		}
	}

	return strings.Join(lines, "\n")
}

func describeActivity(label string, features VideoFeatures, highMotionEvents, crowdEvents int) string {
	switch label {
	case ClassRobbery:
		return "Robbery indicators: large groups stay together while motion repeatedly spikes."
	case ClassTheft:
		return "Theft indicators: isolated or brief bursts of motion while the scene stays sparse."
	case ClassAssault:
		return "Assault indicators: energetic bursts with multiple people involved."
	case ClassExplosion:
		return "Explosion indicators: violent motion spikes with volatile movement despite little human presence."
	case ClassRoadAccident:
		return "Road-accident indicators: clusters of moving objects and directional bursts on an otherwise open scene."
	}

	switch {
	case features.MotionBurstRatio < 0.2 && features.CalmRatio > 0.7 && features.MotionPresenceRatio < 0.3:
		return "Normal activity indicators: calm frames dominate and only light movement occurs."
	case features.PersonPresenceRatio < 0.2:
		return "Mostly empty scene: very few people detected and motion stays limited."
	case features.CrowdRatio < 0.1 && highMotionEvents <= 3:
		return "Light traffic: brief motion spikes but little crowding overall."
	case crowdEvents > 0:
		return "Passing groups appear, yet motion quickly settles back down."
	case features.LateMotionRatio > 0.5 || features.MotionTrend > 0.2:
		return "Motion escalates toward the end of the clip."
	}
	return "Scene stays balanced with modest movement and no persistent crowds."
}

func describeTimeline(highMotion, crowded []video.FrameStats) []string {
	var timeline []string

	if len(highMotion) > 0 {
		topMotion := make([]video.FrameStats, len(highMotion))
		copy(topMotion, highMotion)
		sort.Slice(topMotion, func(i, j int) bool {
			return topMotion[i].MotionMagnitude > topMotion[j].MotionMagnitude
		})
		if len(topMotion) > 3 {
			topMotion = topMotion[:3]
		}
		for _, event := range topMotion {
			timeline = append(timeline, fmt.Sprintf(
				"Spike in motion around t=%s (level %.2f).",
				formatTimestamp(event.Timestamp), event.MotionMagnitude))
		}
	}

	if len(crowded) > 0 {
		first := crowded[0]
		last := crowded[0]
		for _, event := range crowded[1:] {
			if event.Timestamp < first.Timestamp {
				first = event
			}
			if event.Timestamp > last.Timestamp {
				last = event
			}
		}
		if first == last {
			timeline = append(timeline, fmt.Sprintf(
				"Crowd detected near t=%s with ~%d people.",
				formatTimestamp(first.Timestamp), first.PersonCount))
		} else {
			timeline = append(timeline, fmt.Sprintf(
				"Crowd present between t=%s and t=%s.",
				formatTimestamp(first.Timestamp), formatTimestamp(last.Timestamp)))
		}
	}

	maxMotion := 0.0
	for _, event := range highMotion {
		if event.MotionMagnitude > maxMotion {
			maxMotion = event.MotionMagnitude
		}
	}
	if maxMotion > 0 {
		for _, event := range highMotion {
			if event.MovingObjects >= 1 && event.MotionMagnitude >= 0.8*maxMotion {
				timeline = append(timeline, fmt.Sprintf(
					"Visible movers detected near t=%s (~%d active regions).",
					formatTimestamp(event.Timestamp), event.MovingObjects))
			}
		}
	}

	return timeline
}

func describeSegments(frames []video.FrameStats) []string {
	if len(frames) == 0 {
		return nil
	}

	chunk := len(frames) / 3
	if chunk < 1 {
		chunk = 1
	}

	labels := []string{"Early", "Middle", "Final"}
	var segments []string
	for idx, label := range labels {
		start := idx * chunk
		end := (idx + 1) * chunk
		if idx == len(labels)-1 {
			end = len(frames)
		}
		if start >= len(frames) || start >= end {
			continue
		}
		segment := frames[start:end]

		avgMotion := 0.0
		maxMotion := 0.0
		avgMovers := 0.0
		maxMovers := 0
		for _, frame := range segment {
			avgMotion += frame.MotionMagnitude
			avgMovers += float64(frame.MovingObjects)
			if frame.MotionMagnitude > maxMotion {
				maxMotion = frame.MotionMagnitude
			}
			if frame.MovingObjects > maxMovers {
				maxMovers = frame.MovingObjects
			}
		}
		avgMotion /= float64(len(segment))
		avgMovers /= float64(len(segment))

		segments = append(segments, segmentSentence(
			label,
			segment[0].Timestamp, segment[len(segment)-1].Timestamp,
			avgMotion, maxMotion, avgMovers, maxMovers,
		))
	}
	return segments
}

func segmentSentence(label string, start, end, avgMotion, maxMotion, avgMovers float64, maxMovers int) string {
	var motionPhrase string
	switch {
	case avgMotion < 0.3:
		motionPhrase = "mostly still"
	case avgMotion < 0.8:
		motionPhrase = "showing steady movement"
	default:
		motionPhrase = "highly energetic"
	}

	var moverPhrase string
	switch {
	case avgMovers < 0.5:
		moverPhrase = "almost no visible actors"
	case avgMovers < 1.5:
		moverPhrase = "one active subject"
	default:
		moverPhrase = fmt.Sprintf("up to %d moving subjects", maxMovers)
	}

	return fmt.Sprintf("%s phase (%s-%s): %s with %s (avg motion %.2f, peak %.2f).",
		label, formatTimestamp(start), formatTimestamp(end), motionPhrase, moverPhrase, avgMotion, maxMotion)
}

func formatTimestamp(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%0.1fs", seconds)
	}
	minutes := int(seconds) / 60
	remainder := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%04.1f", minutes, remainder)
}
