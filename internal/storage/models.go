package storage

import (
	"time"

	"github.com/hperssn/repclock/internal/domain"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
)

type SessionRecord struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	PlanID          string           `json:"planId"`
	PlanName        string           `json:"planName"`
	Status          Status           `json:"status"`
	TotalElapsedSec int              `json:"totalElapsedSec"`
	TotalPoints     int              `json:"totalPoints"`
	ExercisesDone   int              `json:"exercisesDone"`
	StartedAt       time.Time        `json:"startedAt"`
	FinishedAt      time.Time        `json:"finishedAt"`
	Exercises       []ExerciseRecord `json:"exercises"`
}

type ExerciseRecord struct {
	Index           int    `json:"index"`
	Name            string `json:"name"`
	DurationSeconds int    `json:"durationSeconds"`
	Sets            int    `json:"sets"`
	RestSeconds     int    `json:"restSeconds"`
	Points          int    `json:"points"`
	Completed       bool   `json:"completed"`
}

// SessionSummary is what a finished session hands over for recording.
type SessionSummary struct {
	ID         string
	UserID     string
	Plan       domain.SessionPlan
	Status     Status
	Fraction   float64 // overall completion at the moment the session ended
	ElapsedSec int
	Points     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewSessionRecord converts a finished session into a SessionRecord.
// Stopped sessions earn the points of the exercises they fully finished.
func NewSessionRecord(s SessionSummary) *SessionRecord {
	done := len(s.Plan.Items)
	if s.Status != StatusCompleted {
		done = int(s.Fraction*float64(len(s.Plan.Items)) + 1e-9)
		if done > len(s.Plan.Items) {
			done = len(s.Plan.Items)
		}
	}

	points := s.Points
	exercises := make([]ExerciseRecord, len(s.Plan.Items))
	for i, item := range s.Plan.Items {
		exercises[i] = ExerciseRecord{
			Index:           i,
			Name:            item.Name,
			DurationSeconds: item.DurationSeconds,
			Sets:            item.Sets,
			RestSeconds:     item.RestSeconds,
			Points:          item.Points,
			Completed:       i < done,
		}
		if s.Status != StatusCompleted && i < done {
			points += item.Points
		}
	}

	finishedAt := s.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	return &SessionRecord{
		ID:              s.ID,
		UserID:          s.UserID,
		PlanID:          s.Plan.ID,
		PlanName:        s.Plan.Name,
		Status:          s.Status,
		TotalElapsedSec: s.ElapsedSec,
		TotalPoints:     points,
		ExercisesDone:   done,
		StartedAt:       s.StartedAt,
		FinishedAt:      finishedAt,
		Exercises:       exercises,
	}
}
