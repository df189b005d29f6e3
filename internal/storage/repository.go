package storage

import (
	"fmt"
	"time"
)

type Repository interface {
	SaveSession(record *SessionRecord) error

	GetSessionsByUser(userID string) ([]SessionRecord, error)

	GetRecentSessions(userID string, since time.Time) ([]SessionRecord, error)

	GetSessionStats(userID string) (*SessionStats, error)

	Close() error
}

type SessionStats struct {
	TotalSessions  int     `json:"totalSessions"`
	CompletedCount int     `json:"completedCount"`
	TotalTrainTime int     `json:"totalTrainTime"`
	TotalPoints    int     `json:"totalPoints"`
	CompletionRate float64 `json:"completionRate"`
}

// Open returns the repository for driver: "sqlite3", "postgres" or "memory".
func Open(driver, dsn string) (Repository, error) {
	switch driver {
	case "", "memory":
		return NewMemoryRepository(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteRepository(dsn)
	case "postgres":
		return NewPostgresRepository(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
