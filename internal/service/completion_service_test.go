package service

import (
	"testing"

	"mooc_backend/internal/model"
)

func iptr(v int) *int { return &v }

func TestQualifiesForCompletion(t *testing.T) {
	cases := []struct {
		name      string
		module    model.CourseModule
		attempted int64
		points    float64
		want      bool
	}{
		{
			"manual module never qualifies",
			model.CourseModule{AutomaticCompletion: false, ExercisesAttemptedThreshold: iptr(1)},
			5, 100, false,
		},
		{
			"no thresholds defined never qualifies",
			model.CourseModule{AutomaticCompletion: true},
			5, 100, false,
		},
		{
			"attempted threshold met",
			model.CourseModule{AutomaticCompletion: true, ExercisesAttemptedThreshold: iptr(3)},
			3, 0, true,
		},
		{
			"attempted threshold missed",
			model.CourseModule{AutomaticCompletion: true, ExercisesAttemptedThreshold: iptr(3)},
			2, 100, false,
		},
		{
			"points threshold met",
			model.CourseModule{AutomaticCompletion: true, PointsThreshold: fptr(50)},
			0, 50, true,
		},
		{
			"both defined, one missed",
			model.CourseModule{AutomaticCompletion: true, ExercisesAttemptedThreshold: iptr(3), PointsThreshold: fptr(50)},
			3, 49, false,
		},
		{
			"both defined, both met",
			model.CourseModule{AutomaticCompletion: true, ExercisesAttemptedThreshold: iptr(3), PointsThreshold: fptr(50)},
			4, 51, true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := qualifiesForCompletion(&tc.module, tc.attempted, tc.points); got != tc.want {
				t.Errorf("qualifiesForCompletion = %v, want %v", got, tc.want)
			}
		})
	}
}
