package domain

import "fmt"

// FormatClock renders seconds as mm:ss, or h:mm:ss from one hour up.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	seconds = seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// OverallFraction is (exerciseIndex + perExercise) / totalExercises with
// perExercise clamped to [0,1].
func OverallFraction(exerciseIndex int, perExercise float64, totalExercises int) float64 {
	if totalExercises <= 0 {
		return 0
	}
	if perExercise < 0 {
		perExercise = 0
	}
	if perExercise > 1 {
		perExercise = 1
	}
	return (float64(exerciseIndex) + perExercise) / float64(totalExercises)
}
