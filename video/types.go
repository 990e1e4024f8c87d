package video

// FrameStats carries the signals the vision pipeline derives for one
// sampled frame. Records are created once per frame and never mutated.
type FrameStats struct {
	Index           int     `json:"index"`
	Timestamp       float64 `json:"timestamp"`
	PersonCount     int     `json:"person_count"`
	MovingObjects   int     `json:"moving_objects"`
	MotionMagnitude float64 `json:"motion_magnitude"`
}

// Metadata describes the source clip the frames were sampled from.
// An FPS of 0 means the container did not report a frame rate.
type Metadata struct {
	FPS             float64 `json:"fps"`
	FrameCount      int     `json:"frame_count"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

// FrameSource is the boundary to the vision pipeline that turns a clip
// into per-frame measurements. Implementations sample frames at the
// requested rate and stop early once maxSamples is reached (0 = no cap).
type FrameSource interface {
	ExtractFrameStats(path string, sampleRate float64, maxSamples int) ([]FrameStats, Metadata, error)
}
