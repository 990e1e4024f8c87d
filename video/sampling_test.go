package video

import "testing"

func TestEffectiveFPS(t *testing.T) {
	t.Parallel()

	if got := EffectiveFPS(29.97); got != 29.97 {
		t.Errorf("EffectiveFPS(29.97) = %f", got)
	}
	if got := EffectiveFPS(0); got != 24.0 {
		t.Errorf("EffectiveFPS(0) should fall back to 24, got %f", got)
	}
	if got := EffectiveFPS(-5); got != 24.0 {
		t.Errorf("EffectiveFPS(-5) should fall back to 24, got %f", got)
	}
}

func TestSampleStride(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fps        float64
		sampleRate float64
		want       int
	}{
		{30, 3, 10},
		{24, 3, 8},
		{0, 3, 8},   // fallback fps 24
		{25, 3, 8},  // 8.33 rounds to 8
		{30, 0, 1},  // disabled sampling keeps every frame
		{30, -1, 1},
		{2, 3, 1},   // never skip below one
		{60, 3, 20},
	}
	for _, tc := range cases {
		if got := SampleStride(tc.fps, tc.sampleRate); got != tc.want {
			t.Errorf("SampleStride(%f, %f) = %d, want %d", tc.fps, tc.sampleRate, got, tc.want)
		}
	}
}
