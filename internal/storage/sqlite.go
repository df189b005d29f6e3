package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite tables: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workout_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		status TEXT NOT NULL,
		total_elapsed_sec INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		exercises_done INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		exercises_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workout_user_id ON workout_sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_workout_finished_at ON workout_sessions(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) SaveSession(record *SessionRecord) error {
	exercisesJSON, err := json.Marshal(record.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	query := `
		INSERT INTO workout_sessions (id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(
		query,
		record.ID,
		record.UserID,
		record.PlanID,
		record.PlanName,
		record.Status,
		record.TotalElapsedSec,
		record.TotalPoints,
		record.ExercisesDone,
		record.StartedAt.UTC().Truncate(time.Second),
		record.FinishedAt.UTC().Truncate(time.Second),
		string(exercisesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", record.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetSessionsByUser(userID string) ([]SessionRecord, error) {
	query := `
		SELECT id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json
		FROM workout_sessions
		WHERE user_id = ?
		ORDER BY finished_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (r *SQLiteRepository) GetRecentSessions(userID string, since time.Time) ([]SessionRecord, error) {
	query := `
		SELECT id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json
		FROM workout_sessions
		WHERE user_id = ? AND finished_at >= ?
		ORDER BY finished_at DESC
	`

	rows, err := r.db.Query(query, userID, since.UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (r *SQLiteRepository) GetSessionStats(userID string) (*SessionStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(total_elapsed_sec), 0) as total_time,
			COALESCE(SUM(total_points), 0) as total_points
		FROM workout_sessions
		WHERE user_id = ?
	`

	var stats SessionStats
	err := r.db.QueryRow(query, userID).Scan(
		&stats.TotalSessions,
		&stats.CompletedCount,
		&stats.TotalTrainTime,
		&stats.TotalPoints,
	)
	if err != nil {
		return nil, err
	}

	stats.CompletionRate = completionRate(stats.CompletedCount, stats.TotalSessions)
	return &stats, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	var records []SessionRecord

	for rows.Next() {
		var record SessionRecord
		var exercisesJSON []byte

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.PlanID,
			&record.PlanName,
			&record.Status,
			&record.TotalElapsedSec,
			&record.TotalPoints,
			&record.ExercisesDone,
			&record.StartedAt,
			&record.FinishedAt,
			&exercisesJSON,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(exercisesJSON, &record.Exercises); err != nil {
			return nil, fmt.Errorf("decode exercises of session %s: %w", record.ID, err)
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
