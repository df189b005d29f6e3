package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	repo := &PostgresRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres tables: %w", err)
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
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
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		exercises_json JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workout_user_id ON workout_sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_workout_finished_at ON workout_sessions(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *PostgresRepository) SaveSession(record *SessionRecord) error {
	exercisesJSON, err := json.Marshal(record.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	query := `
		INSERT INTO workout_sessions (id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
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
		record.StartedAt,
		record.FinishedAt,
		exercisesJSON,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", record.ID, err)
	}
	return nil
}

func (r *PostgresRepository) GetSessionsByUser(userID string) ([]SessionRecord, error) {
	query := `
		SELECT id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json
		FROM workout_sessions
		WHERE user_id = $1
		ORDER BY finished_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (r *PostgresRepository) GetRecentSessions(userID string, since time.Time) ([]SessionRecord, error) {
	query := `
		SELECT id, user_id, plan_id, plan_name, status, total_elapsed_sec, total_points, exercises_done, started_at, finished_at, exercises_json
		FROM workout_sessions
		WHERE user_id = $1 AND finished_at >= $2
		ORDER BY finished_at DESC
	`

	rows, err := r.db.Query(query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (r *PostgresRepository) GetSessionStats(userID string) (*SessionStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(total_elapsed_sec), 0) as total_time,
			COALESCE(SUM(total_points), 0) as total_points
		FROM workout_sessions
		WHERE user_id = $1
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

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
