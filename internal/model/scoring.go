package model

import "math"

// RoundScore rounds to two decimals, half away from zero. Applied every time
// a score is written into a user exercise state.
func RoundScore(score float32) float32 {
	return float32(math.Round(float64(score)*100) / 100)
}

// ScaleTaskScore maps an unscaled grader result onto the exercise's score
// range and clamps it into [0, scoreMaximum].
func ScaleTaskScore(unscaledGiven, unscaledMaximum float32, scoreMaximum int) float32 {
	if unscaledMaximum == 0 {
		return 0
	}
	scaled := float32(scoreMaximum) * (unscaledGiven / unscaledMaximum)
	if scaled < 0 {
		return 0
	}
	if scaled > float32(scoreMaximum) {
		return float32(scoreMaximum)
	}
	return scaled
}
