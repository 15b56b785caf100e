package model

import "testing"

func TestMinGradingProgress(t *testing.T) {
	cases := []struct {
		name string
		in   []GradingProgress
		want GradingProgress
	}{
		{"empty", nil, GradingProgressNotReady},
		{"single", []GradingProgress{GradingProgressPending}, GradingProgressPending},
		{"fully graded and pending", []GradingProgress{GradingProgressFullyGraded, GradingProgressPending}, GradingProgressPending},
		{"failed dominates", []GradingProgress{GradingProgressFullyGraded, GradingProgressFailed, GradingProgressPending}, GradingProgressFailed},
		{"not ready is bottom", []GradingProgress{GradingProgressNotReady, GradingProgressFullyGraded}, GradingProgressNotReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MinGradingProgress(tc.in); got != tc.want {
				t.Errorf("MinGradingProgress(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMaxGradingProgressNeverRegresses(t *testing.T) {
	all := []GradingProgress{
		GradingProgressNotReady,
		GradingProgressFailed,
		GradingProgressPendingManual,
		GradingProgressPending,
		GradingProgressFullyGraded,
	}
	for _, a := range all {
		for _, b := range all {
			got := MaxGradingProgress(a, b)
			if got.Rank() < a.Rank() || got.Rank() < b.Rank() {
				t.Errorf("MaxGradingProgress(%q, %q) = %q regressed", a, b, got)
			}
		}
	}
}

func TestGradingProgressValid(t *testing.T) {
	if !GradingProgressFullyGraded.Valid() {
		t.Error("fully-graded should be valid")
	}
	if GradingProgress("half-graded").Valid() {
		t.Error("unknown progress should be invalid")
	}
}

func TestRoundScore(t *testing.T) {
	cases := []struct {
		in   float32
		want float32
	}{
		{0, 0},
		{7, 7},
		{7.004, 7.0},
		{7.005, 7.01},
		{7.996, 8.0},
		{-3.333333, -3.33},
	}
	for _, tc := range cases {
		if got := RoundScore(tc.in); got != tc.want {
			t.Errorf("RoundScore(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestScaleTaskScore(t *testing.T) {
	cases := []struct {
		name         string
		given, max   float32
		scoreMaximum int
		want         float32
	}{
		{"four of five on ten", 4, 5, 10, 8},
		{"full marks", 5, 5, 10, 10},
		{"zero maximum yields zero", 3, 0, 10, 0},
		{"negative clamps to zero", -2, 5, 10, 0},
		{"overshoot clamps to maximum", 7, 5, 10, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScaleTaskScore(tc.given, tc.max, tc.scoreMaximum); got != tc.want {
				t.Errorf("ScaleTaskScore(%v, %v, %d) = %v, want %v", tc.given, tc.max, tc.scoreMaximum, got, tc.want)
			}
		})
	}
}
