package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps checkpoints in a single SQLite database, one row per job.
// The full checkpoint is stored as a JSON document next to a few indexed columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer at a time avoids SQLITE_BUSY under concurrent saves
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints(
			job_id TEXT PRIMARY KEY,
			algorithm TEXT NOT NULL,
			best_loss REAL NOT NULL,
			iteration INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			data TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCheckpoint inserts or replaces the row for jobID
func (s *SQLiteStore) SaveCheckpoint(jobID string, checkpoint *Checkpoint) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}

	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO checkpoints(job_id, algorithm, best_loss, iteration, ts, data) VALUES(?,?,?,?,?,?)",
		jobID, checkpoint.Config.Algorithm, checkpoint.BestLoss, checkpoint.Iteration,
		checkpoint.Timestamp.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Debug("Checkpoint saved", "jobID", jobID, "store", "sqlite")
	return nil
}

// LoadCheckpoint reads the checkpoint for jobID
func (s *SQLiteStore) LoadCheckpoint(jobID string) (*Checkpoint, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	var data string
	err := s.db.QueryRow("SELECT data FROM checkpoints WHERE job_id = ?", jobID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal([]byte(data), &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// ListCheckpoints returns metadata for every stored checkpoint, newest first
func (s *SQLiteStore) ListCheckpoints() ([]CheckpointInfo, error) {
	rows, err := s.db.Query("SELECT job_id, data FROM checkpoints ORDER BY ts DESC, job_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	infos := []CheckpointInfo{}
	for rows.Next() {
		var jobID, data string
		if err := rows.Scan(&jobID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		var checkpoint Checkpoint
		if err := json.Unmarshal([]byte(data), &checkpoint); err != nil {
			slog.Warn("Failed to decode checkpoint for listing", "jobID", jobID, "error", err)
			continue
		}
		infos = append(infos, checkpoint.ToInfo())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkpoints: %w", err)
	}
	return infos, nil
}

// DeleteCheckpoint removes the row for jobID
func (s *SQLiteStore) DeleteCheckpoint(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	res, err := s.db.Exec("DELETE FROM checkpoints WHERE job_id = ?", jobID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n == 0 {
		return &NotFoundError{JobID: jobID}
	}
	return nil
}
