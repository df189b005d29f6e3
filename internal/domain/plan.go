package domain

// SessionPlan is the ordered list of exercises for one workout.
type SessionPlan struct {
	ID    string             `json:"id" yaml:"id"`
	Name  string             `json:"name" yaml:"name"`
	Items []ExercisePlanItem `json:"items" yaml:"items"`
}

// Validate checks the plan and returns an *InvalidPlanError describing the
// first problem found.
func (p SessionPlan) Validate() error {
	if len(p.Items) == 0 {
		return &InvalidPlanError{Index: -1, Reason: "plan has no exercises"}
	}

	for i, item := range p.Items {
		switch {
		case item.DurationSeconds < 0:
			return &InvalidPlanError{Index: i, Field: "durationSeconds", Value: item.DurationSeconds, Reason: "must not be negative"}
		case item.Sets < 1:
			return &InvalidPlanError{Index: i, Field: "sets", Value: item.Sets, Reason: "must be at least 1"}
		case item.RestSeconds < 0:
			return &InvalidPlanError{Index: i, Field: "restSeconds", Value: item.RestSeconds, Reason: "must not be negative"}
		case item.Points < 0:
			return &InvalidPlanError{Index: i, Field: "points", Value: item.Points, Reason: "must not be negative"}
		}
	}

	return nil
}

// Clone returns a deep copy so a running session never shares items with the caller.
func (p SessionPlan) Clone() SessionPlan {
	items := make([]ExercisePlanItem, len(p.Items))
	copy(items, p.Items)
	return SessionPlan{ID: p.ID, Name: p.Name, Items: items}
}

// TotalTicks is the number of ticks a fully timed plan needs to complete:
// every set of every exercise plus the rest after each non-final exercise.
func (p SessionPlan) TotalTicks() int {
	total := 0
	for i, item := range p.Items {
		total += item.WorkSeconds()
		if i < len(p.Items)-1 {
			total += item.RestSeconds
		}
	}
	return total
}

func (p SessionPlan) TotalPoints() int {
	total := 0
	for _, item := range p.Items {
		total += item.Points
	}
	return total
}
