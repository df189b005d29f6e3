package domain

import "fmt"

type ExercisePlanItem struct {
	Name            string `json:"name" yaml:"name"`
	DurationSeconds int    `json:"durationSeconds" yaml:"duration_seconds"`
	Sets            int    `json:"sets" yaml:"sets"`
	RestSeconds     int    `json:"restSeconds" yaml:"rest_seconds"`
	Points          int    `json:"points,omitempty" yaml:"points,omitempty"`
}

// RepOnly reports whether the exercise has no timer and must be advanced manually.
func (item ExercisePlanItem) RepOnly() bool {
	return item.DurationSeconds == 0
}

// WorkSeconds is the timed work across all sets, excluding rest.
func (item ExercisePlanItem) WorkSeconds() int {
	return item.DurationSeconds * item.Sets
}

// InvalidPlanError is returned by Engine.Start and SessionPlan.Validate for
// malformed plans. Index is -1 when the problem concerns the plan as a whole.
type InvalidPlanError struct {
	Index  int
	Field  string
	Value  int
	Reason string
}

func (e *InvalidPlanError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan: item %d: %s = %d: %s", e.Index, e.Field, e.Value, e.Reason)
}
