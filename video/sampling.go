package video

import "math"

// DefaultSampleRate is the number of frames retained per second of video.
const DefaultSampleRate = 3.0

// fallbackFPS is assumed when a container reports no frame rate.
const fallbackFPS = 24.0

// EffectiveFPS resolves the frame rate used for stride computation.
func EffectiveFPS(fps float64) float64 {
	if fps > 0 {
		return fps
	}
	return fallbackFPS
}

// SampleStride returns how many source frames to skip between samples so
// that roughly sampleRate frames are kept per second.
func SampleStride(sourceFPS, sampleRate float64) int {
	if sampleRate <= 0 {
		return 1
	}
	stride := int(math.Round(EffectiveFPS(sourceFPS) / sampleRate))
	if stride < 1 {
		stride = 1
	}
	return stride
}
