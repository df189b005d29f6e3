package storage

import (
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps records in process memory. Used when no database
// is configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []SessionRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) SaveSession(record *SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	copied.Exercises = append([]ExerciseRecord(nil), record.Exercises...)
	r.records = append(r.records, copied)
	return nil
}

func (r *MemoryRepository) GetSessionsByUser(userID string) ([]SessionRecord, error) {
	return r.filter(func(record SessionRecord) bool {
		return record.UserID == userID
	}), nil
}

func (r *MemoryRepository) GetRecentSessions(userID string, since time.Time) ([]SessionRecord, error) {
	return r.filter(func(record SessionRecord) bool {
		return record.UserID == userID && !record.FinishedAt.Before(since)
	}), nil
}

func (r *MemoryRepository) GetSessionStats(userID string) (*SessionStats, error) {
	records, _ := r.GetSessionsByUser(userID)

	var stats SessionStats
	for _, record := range records {
		stats.TotalSessions++
		if record.Status == StatusCompleted {
			stats.CompletedCount++
		}
		stats.TotalTrainTime += record.TotalElapsedSec
		stats.TotalPoints += record.TotalPoints
	}
	stats.CompletionRate = completionRate(stats.CompletedCount, stats.TotalSessions)
	return &stats, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) filter(keep func(SessionRecord) bool) []SessionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []SessionRecord
	for _, record := range r.records {
		if keep(record) {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	return out
}
