package domain

import (
	"fmt"
	"math/rand"
)

func warmupStepCount(targetSec int, r *rand.Rand) int {
	switch {
	case targetSec < 240:
		return 5 + r.Intn(2)
	case targetSec < 600:
		return 4 + r.Intn(2)
	case targetSec < 900:
		return 3 + r.Intn(2)
	default:
		return 2 + r.Intn(2)
	}
}

func maxWarmupDuration(targetSec int) int {
	max := int(float64(targetSec) * 0.15)

	if max > 40 {
		return 40
	}
	if max < 5 {
		return 5
	}
	return max
}

var warmupMoves = []string{
	"Jumping Jacks",
	"High Knees",
	"Arm Circles",
	"Butt Kicks",
	"Leg Swings",
	"Hip Openers",
}

// GenerateWarmup builds a block of short single-set warm-up moves sized to
// the working time of the plan that follows.
func GenerateWarmup(targetSec int, r *rand.Rand) []ExercisePlanItem {
	count := warmupStepCount(targetSec, r)
	maxWarmup := maxWarmupDuration(targetSec)

	items := make([]ExercisePlanItem, count)
	for i := 0; i < count; i++ {
		items[i] = ExercisePlanItem{
			Name:            warmupMoves[i%len(warmupMoves)],
			DurationSeconds: r.Intn(maxWarmup) + 1,
			Sets:            1,
		}
	}
	return items
}

// WithWarmup returns a copy of plan with a generated warm-up in front.
func WithWarmup(plan SessionPlan, targetSec int, r *rand.Rand) SessionPlan {
	warmup := GenerateWarmup(targetSec, r)

	items := make([]ExercisePlanItem, 0, len(warmup)+len(plan.Items))
	items = append(items, warmup...)
	items = append(items, plan.Items...)

	return SessionPlan{
		ID:    plan.ID,
		Name:  fmt.Sprintf("%s (with warm-up)", plan.Name),
		Items: items,
	}
}
