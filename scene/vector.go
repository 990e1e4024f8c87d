package scene

// VectorSchemaVersion identifies the encoder's field list and scaling.
// Bump it whenever either changes: prototypes encoded under another
// version are not comparable and are skipped at load time.
const VectorSchemaVersion = 1

const vectorClampLimit = 2.0

type vectorField struct {
	name  string
	scale float64
	value func(VideoFeatures) float64
}

// vectorSchema maps VideoFeatures fields onto the similarity space. Order
// and scales are a stable contract shared with every stored prototype.
var vectorSchema = []vectorField{
	{"average_motion", 5.0, func(f VideoFeatures) float64 { return f.AverageMotion }},
	{"peak_motion", 10.0, func(f VideoFeatures) float64 { return f.PeakMotion }},
	{"motion_std", 5.0, func(f VideoFeatures) float64 { return f.MotionStd }},
	{"crowd_ratio", 1.0, func(f VideoFeatures) float64 { return f.CrowdRatio }},
	{"motion_burst_ratio", 1.0, func(f VideoFeatures) float64 { return f.MotionBurstRatio }},
	{"person_presence_ratio", 1.0, func(f VideoFeatures) float64 { return f.PersonPresenceRatio }},
	{"active_motion_ratio", 1.0, func(f VideoFeatures) float64 { return f.ActiveMotionRatio }},
	{"late_motion_ratio", 1.0, func(f VideoFeatures) float64 { return f.LateMotionRatio }},
	{"avg_moving_objects", 4.0, func(f VideoFeatures) float64 { return f.AvgMovingObjects }},
	{"max_moving_objects", 6.0, func(f VideoFeatures) float64 { return f.MaxMovingObjects }},
	{"calm_ratio", 1.0, func(f VideoFeatures) float64 { return f.CalmRatio }},
	{"multi_person_ratio", 1.0, func(f VideoFeatures) float64 { return f.MultiPersonRatio }},
}

// VectorLen returns the dimensionality of the similarity space.
func VectorLen() int {
	return len(vectorSchema)
}

// VectorFieldNames returns the schema field names in encoding order.
func VectorFieldNames() []string {
	names := make([]string, len(vectorSchema))
	for i, field := range vectorSchema {
		names[i] = field.name
	}
	return names
}

// BuildFeatureVector projects a feature record onto the fixed similarity
// schema: each field is divided by its scale and clamped to [-2, 2].
func BuildFeatureVector(features VideoFeatures) []float64 {
	vector := make([]float64, 0, len(vectorSchema))
	for _, field := range vectorSchema {
		value := field.value(features)
		if field.scale != 0 {
			value /= field.scale
		}
		vector = append(vector, clamp(value, -vectorClampLimit, vectorClampLimit))
	}
	return vector
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
