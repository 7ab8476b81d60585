package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB implements the Database interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %v", err)
	}

	// Create tables if they don't exist
	err = initTables(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %v", err)
	}

	return &SQLiteDB{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clip_jobs (
			id TEXT PRIMARY KEY,
			alert_id TEXT NOT NULL,
			alert_time TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			status TEXT NOT NULL,
			attempts INTEGER DEFAULT 0,
			chunk_count INTEGER DEFAULT 0,
			duration REAL DEFAULT 0,
			size INTEGER DEFAULT 0,
			local_path TEXT,
			clip_url TEXT,
			thumbnail_url TEXT,
			optimization_degraded INTEGER DEFAULT 0,
			error_message TEXT
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_clip_jobs_status ON clip_jobs (status)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_clip_jobs_alert_id ON clip_jobs (alert_id)
	`)
	if err != nil {
		return err
	}

	return nil
}

// CreateJob inserts a new clip job record into the database
func (s *SQLiteDB) CreateJob(job ClipJob) error {
	_, err := s.db.Exec(`
		INSERT INTO clip_jobs (
			id, alert_id, alert_time, created_at, finished_at, status,
			attempts, chunk_count, duration, size,
			local_path, clip_url, thumbnail_url, optimization_degraded, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.AlertID,
		job.AlertTime,
		job.CreatedAt,
		job.FinishedAt,
		job.Status,
		job.Attempts,
		job.ChunkCount,
		job.Duration,
		job.Size,
		job.LocalPath,
		job.ClipURL,
		job.ThumbnailURL,
		job.OptimizationDegraded,
		job.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to create clip job: %v", err)
	}

	return nil
}

// GetJob retrieves a clip job by ID. Returns nil without error when the
// job does not exist.
func (s *SQLiteDB) GetJob(id string) (*ClipJob, error) {
	return s.getJobByColumn("id", id)
}

// GetJobByAlertID retrieves the most recent clip job for an alert
func (s *SQLiteDB) GetJobByAlertID(alertID string) (*ClipJob, error) {
	return s.getJobByColumn("alert_id", alertID)
}

func (s *SQLiteDB) getJobByColumn(column, value string) (*ClipJob, error) {
	row := s.db.QueryRow(fmt.Sprintf(`
		SELECT
			id, alert_id, alert_time, created_at, finished_at, status,
			attempts, chunk_count, duration, size,
			local_path, clip_url, thumbnail_url, optimization_degraded, error_message
		FROM clip_jobs
		WHERE %s = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, column), value)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clip job: %v", err)
	}
	return job, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*ClipJob, error) {
	var job ClipJob
	var finishedAt sql.NullTime
	var localPath, clipURL, thumbnailURL, errorMessage sql.NullString

	err := row.Scan(
		&job.ID,
		&job.AlertID,
		&job.AlertTime,
		&job.CreatedAt,
		&finishedAt,
		&job.Status,
		&job.Attempts,
		&job.ChunkCount,
		&job.Duration,
		&job.Size,
		&localPath,
		&clipURL,
		&thumbnailURL,
		&job.OptimizationDegraded,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	// Convert SQL nullable types to Go types
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	if localPath.Valid {
		job.LocalPath = localPath.String
	}
	if clipURL.Valid {
		job.ClipURL = clipURL.String
	}
	if thumbnailURL.Valid {
		job.ThumbnailURL = thumbnailURL.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}

	return &job, nil
}

// UpdateJob updates an existing clip job record
func (s *SQLiteDB) UpdateJob(job ClipJob) error {
	result, err := s.db.Exec(`
		UPDATE clip_jobs
		SET
			alert_id = ?,
			alert_time = ?,
			finished_at = ?,
			status = ?,
			attempts = ?,
			chunk_count = ?,
			duration = ?,
			size = ?,
			local_path = ?,
			clip_url = ?,
			thumbnail_url = ?,
			optimization_degraded = ?,
			error_message = ?
		WHERE id = ?
	`,
		job.AlertID,
		job.AlertTime,
		job.FinishedAt,
		job.Status,
		job.Attempts,
		job.ChunkCount,
		job.Duration,
		job.Size,
		job.LocalPath,
		job.ClipURL,
		job.ThumbnailURL,
		job.OptimizationDegraded,
		job.ErrorMessage,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clip job: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return fmt.Errorf("clip job not found: %s", job.ID)
	}

	return nil
}

// ListJobs retrieves clip jobs ordered by creation time, newest first
func (s *SQLiteDB) ListJobs(limit, offset int) ([]ClipJob, error) {
	rows, err := s.db.Query(`
		SELECT
			id, alert_id, alert_time, created_at, finished_at, status,
			attempts, chunk_count, duration, size,
			local_path, clip_url, thumbnail_url, optimization_degraded, error_message
		FROM clip_jobs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list clip jobs: %v", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// GetJobsByStatus retrieves clip jobs with a specific status
func (s *SQLiteDB) GetJobsByStatus(status JobStatus, limit, offset int) ([]ClipJob, error) {
	rows, err := s.db.Query(`
		SELECT
			id, alert_id, alert_time, created_at, finished_at, status,
			attempts, chunk_count, duration, size,
			local_path, clip_url, thumbnail_url, optimization_degraded, error_message
		FROM clip_jobs
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get clip jobs by status: %v", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]ClipJob, error) {
	var jobs []ClipJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip job: %v", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clip jobs: %v", err)
	}
	return jobs, nil
}

// UpdateJobStatus updates the status and error message of a clip job
func (s *SQLiteDB) UpdateJobStatus(id string, status JobStatus, errorMsg string) error {
	var finishedAt *time.Time

	// Terminal states record when the job finished
	if status == StatusDone || status == StatusFailed || status == StatusNoFootage {
		now := time.Now()
		finishedAt = &now
	}

	_, err := s.db.Exec(`
		UPDATE clip_jobs
		SET
			status = ?,
			error_message = ?,
			finished_at = ?
		WHERE id = ?
	`, status, errorMsg, finishedAt, id)

	if err != nil {
		return fmt.Errorf("failed to update clip job status: %v", err)
	}

	log.Printf("Updated clip job %s status to %s", id, status)
	return nil
}

// CountJobsByStatus returns the number of jobs in each status
func (s *SQLiteDB) CountJobsByStatus() (map[JobStatus]int, error) {
	rows, err := s.db.Query(`
		SELECT status, COUNT(*) FROM clip_jobs GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count clip jobs: %v", err)
	}
	defer rows.Close()

	counts := make(map[JobStatus]int)
	for rows.Next() {
		var status JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %v", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job counts: %v", err)
	}

	return counts, nil
}

// DeleteJob deletes a clip job record
func (s *SQLiteDB) DeleteJob(id string) error {
	_, err := s.db.Exec(`DELETE FROM clip_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete clip job: %v", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
