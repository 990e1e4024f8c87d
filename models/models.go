package models

import (
	"encoding/json"
	"time"

	"clip-triage/video"
)

// Analysis is one stored classification run.
type Analysis struct {
	ID              int64           `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Source          string          `json:"source,omitempty"`
	Label           string          `json:"label"`
	Scores          json.RawMessage `json:"scores"` // per-class breakdown as JSON
	Explanation     string          `json:"explanation,omitempty"`
	FrameSamples    int             `json:"frameSamples"`
	DurationSeconds float64         `json:"durationSeconds"`
	LatencyMs       float64         `json:"latencyMs"`
}

// MeasurementPayload is the wire format the serve mode accepts over both
// HTTP and socket events: one clip's measurement batch plus options.
type MeasurementPayload struct {
	Source           string             `json:"source,omitempty"`
	Metadata         video.Metadata     `json:"metadata"`
	Frames           []video.FrameStats `json:"frames"`
	TrainLabel       string             `json:"trainLabel,omitempty"`
	UseFilenameHints bool               `json:"useFilenameHints,omitempty"`
}
