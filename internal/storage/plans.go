package storage

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hperssn/repclock/internal/domain"
)

type plansFile struct {
	Plans []domain.SessionPlan `yaml:"plans"`
}

// Catalog is the read-only set of workout plans sessions can be started from.
type Catalog struct {
	plans map[string]domain.SessionPlan
}

// NewCatalog validates plans and indexes them by id.
func NewCatalog(plans []domain.SessionPlan) (*Catalog, error) {
	catalog := &Catalog{plans: make(map[string]domain.SessionPlan, len(plans))}
	for i, plan := range plans {
		if plan.ID == "" {
			return nil, fmt.Errorf("plan %d has no id", i)
		}
		if _, exists := catalog.plans[plan.ID]; exists {
			return nil, fmt.Errorf("duplicate plan id %q", plan.ID)
		}
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("plan %q: %w", plan.ID, err)
		}
		catalog.plans[plan.ID] = plan.Clone()
	}
	return catalog, nil
}

// LoadPlans reads a YAML plan file. A missing file yields the built-in plans.
func LoadPlans(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(DefaultPlans())
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewCatalog(DefaultPlans())
		}
		return nil, fmt.Errorf("read plans file: %w", err)
	}

	var fileData plansFile
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return nil, fmt.Errorf("parse plans yaml: %w", err)
	}
	if len(fileData.Plans) == 0 {
		return nil, fmt.Errorf("plans file %s defines no plans", path)
	}

	return NewCatalog(fileData.Plans)
}

func (c *Catalog) Get(id string) (domain.SessionPlan, bool) {
	plan, ok := c.plans[id]
	if !ok {
		return domain.SessionPlan{}, false
	}
	return plan.Clone(), true
}

// List returns every plan ordered by id.
func (c *Catalog) List() []domain.SessionPlan {
	plans := make([]domain.SessionPlan, 0, len(c.plans))
	for _, plan := range c.plans {
		plans = append(plans, plan.Clone())
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].ID < plans[j].ID
	})
	return plans
}

func DefaultPlans() []domain.SessionPlan {
	return []domain.SessionPlan{
		{
			ID:   "sprint-intervals",
			Name: "Sprint Intervals",
			Items: []domain.ExercisePlanItem{
				{Name: "High Knees", DurationSeconds: 30, Sets: 1, RestSeconds: 15, Points: 5},
				{Name: "Sprint", DurationSeconds: 20, Sets: 4, RestSeconds: 40, Points: 20},
				{Name: "Walk Recovery", DurationSeconds: 60, Sets: 1, Points: 5},
			},
		},
		{
			ID:   "core-circuit",
			Name: "Core Circuit",
			Items: []domain.ExercisePlanItem{
				{Name: "Plank", DurationSeconds: 45, Sets: 3, RestSeconds: 20, Points: 15},
				{Name: "Mountain Climbers", DurationSeconds: 30, Sets: 3, RestSeconds: 20, Points: 15},
				{Name: "Push-ups", DurationSeconds: 0, Sets: 3, RestSeconds: 30, Points: 20},
				{Name: "Bicycle Crunches", DurationSeconds: 40, Sets: 2, Points: 10},
			},
		},
		{
			ID:   "mobility-flow",
			Name: "Mobility Flow",
			Items: []domain.ExercisePlanItem{
				{Name: "Hip Openers", DurationSeconds: 60, Sets: 1, RestSeconds: 10, Points: 5},
				{Name: "Hamstring Stretch", DurationSeconds: 45, Sets: 2, RestSeconds: 10, Points: 5},
				{Name: "Ankle Circles", DurationSeconds: 30, Sets: 1, Points: 5},
			},
		},
	}
}
