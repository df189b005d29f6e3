package domain

import (
	"math/rand"
	"testing"
)

func TestMaxWarmupDuration(t *testing.T) {
	tests := []struct {
		name      string
		targetSec int
		expected  int
	}{
		{name: "minimum target", targetSec: 30, expected: 5},
		{name: "medium target", targetSec: 300, expected: 40},
		{name: "large target cap", targetSec: 1200, expected: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maxWarmupDuration(tt.targetSec)

			if result != tt.expected {
				t.Fatalf("maxWarmupDuration(%d) = %d want %d", tt.targetSec, result, tt.expected)
			}
		})
	}
}

func TestGenerateWarmupStructure(t *testing.T) {
	targetSec := 300
	r := rand.New(rand.NewSource(1))

	items := GenerateWarmup(targetSec, r)

	if len(items) < 4 || len(items) > 5 {
		t.Fatalf("expected 4-5 warm-up items got %d", len(items))
	}

	maxWarmup := maxWarmupDuration(targetSec)
	for i, item := range items {
		if item.DurationSeconds < 1 || item.DurationSeconds > maxWarmup {
			t.Errorf("item %d duration %d out of bounds [1,%d]", i, item.DurationSeconds, maxWarmup)
		}
		if item.Sets != 1 {
			t.Errorf("item %d sets = %d, want 1", i, item.Sets)
		}
		if item.Name == "" {
			t.Errorf("item %d has no name", i)
		}
	}

	plan := SessionPlan{Items: items}
	if err := plan.Validate(); err != nil {
		t.Fatalf("generated warm-up is not a valid plan: %v", err)
	}
}

func TestGenerateWarmupDeterministic(t *testing.T) {
	targetSec := 300

	r1 := rand.New(rand.NewSource(42))
	r2 := rand.New(rand.NewSource(42))

	items1 := GenerateWarmup(targetSec, r1)
	items2 := GenerateWarmup(targetSec, r2)

	if len(items1) != len(items2) {
		t.Fatalf("item count mismatch: %d vs %d", len(items1), len(items2))
	}

	for i := range items1 {
		if items1[i] != items2[i] {
			t.Errorf("item %d mismatch: %+v vs %+v", i, items1[i], items2[i])
		}
	}
}

func TestWarmupStepCountRanges(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	tests := []struct {
		name      string
		targetSec int
		min       int
		max       int
	}{
		{"small target", 100, 5, 6},
		{"medium target", 400, 4, 5},
		{"large target", 700, 3, 4},
		{"very large target", 1200, 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := warmupStepCount(tt.targetSec, r)

			if n < tt.min || n > tt.max {
				t.Fatalf(
					"warmupStepCount(%d) = %d, want [%d,%d]",
					tt.targetSec, n, tt.min, tt.max,
				)
			}
		})
	}
}

func TestWithWarmupPrependsItems(t *testing.T) {
	plan := SessionPlan{
		ID:    "core",
		Name:  "Core",
		Items: []ExercisePlanItem{{Name: "Plank", DurationSeconds: 30, Sets: 2, RestSeconds: 10}},
	}

	got := WithWarmup(plan, 60, rand.New(rand.NewSource(7)))

	if len(got.Items) <= len(plan.Items) {
		t.Fatalf("expected warm-up items to be added, got %d items", len(got.Items))
	}
	if last := got.Items[len(got.Items)-1]; last != plan.Items[0] {
		t.Fatalf("last item = %+v, want %+v", last, plan.Items[0])
	}
	if got.ID != plan.ID {
		t.Fatalf("plan id = %q, want %q", got.ID, plan.ID)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("original plan was modified")
	}
}
