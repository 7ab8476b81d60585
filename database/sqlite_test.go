package database

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// TestSQLiteDB tests SQLite database operations
func TestSQLiteDB(t *testing.T) {
	// Create temporary directory for test database
	tempDir, err := os.MkdirTemp("", "alert-clipper-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	defer db.Close()

	// Test CreateJob and GetJob
	testCreateAndGetJob(t, db)

	// Test GetJobByAlertID
	testGetJobByAlertID(t, db)

	// Test ListJobs
	testListJobs(t, db)

	// Test GetJobsByStatus
	testGetJobsByStatus(t, db)

	// Test UpdateJobStatus
	testUpdateJobStatus(t, db)

	// Test UpdateJob
	testUpdateJob(t, db)

	// Test CountJobsByStatus
	testCountJobsByStatus(t, db)

	// Test DeleteJob
	testDeleteJob(t, db)
}

// testCreateAndGetJob tests creating and retrieving a clip job
func testCreateAndGetJob(t *testing.T, db *SQLiteDB) {
	now := time.Now()
	job := ClipJob{
		ID:        "test-job-1",
		AlertID:   "alert-100",
		AlertTime: now.Add(-5 * time.Minute),
		CreatedAt: now,
		Status:    StatusProcessing,
		Attempts:  1,
		LocalPath: "/clips/alert_clip_20251222_075030.mp4",
	}

	err := db.CreateJob(job)
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	retrieved, err := db.GetJob("test-job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected job, got nil")
	}
	if retrieved.AlertID != "alert-100" {
		t.Errorf("Expected alert ID alert-100, got %s", retrieved.AlertID)
	}
	if retrieved.Status != StatusProcessing {
		t.Errorf("Expected status %s, got %s", StatusProcessing, retrieved.Status)
	}
	if retrieved.FinishedAt != nil {
		t.Errorf("Expected nil FinishedAt for running job, got %v", retrieved.FinishedAt)
	}
	if retrieved.OptimizationDegraded {
		t.Error("Expected OptimizationDegraded false by default")
	}

	// Missing job returns nil without error
	missing, err := db.GetJob("does-not-exist")
	if err != nil {
		t.Fatalf("Unexpected error for missing job: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing job")
	}
}

// testGetJobByAlertID tests looking up a job by its alert
func testGetJobByAlertID(t *testing.T, db *SQLiteDB) {
	retrieved, err := db.GetJobByAlertID("alert-100")
	if err != nil {
		t.Fatalf("Failed to get job by alert ID: %v", err)
	}
	if retrieved == nil || retrieved.ID != "test-job-1" {
		t.Errorf("Expected test-job-1 for alert-100, got %v", retrieved)
	}

	missing, err := db.GetJobByAlertID("alert-unknown")
	if err != nil {
		t.Fatalf("Unexpected error for unknown alert: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown alert")
	}
}

// testListJobs tests listing jobs with limit and offset
func testListJobs(t *testing.T, db *SQLiteDB) {
	// Add more jobs with staggered creation times so ordering is stable
	base := time.Now().Add(time.Minute)
	for i := 2; i <= 5; i++ {
		job := ClipJob{
			ID:        "test-job-" + strconv.Itoa(i),
			AlertID:   "alert-10" + strconv.Itoa(i),
			AlertTime: base,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Status:    StatusPending,
		}
		if err := db.CreateJob(job); err != nil {
			t.Fatalf("Failed to create job %d: %v", i, err)
		}
	}

	jobs, err := db.ListJobs(3, 0)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("Expected 3 jobs with limit 3, got %d", len(jobs))
	}
	// Newest first
	if jobs[0].ID != "test-job-5" {
		t.Errorf("Expected newest job first, got %s", jobs[0].ID)
	}

	jobs, err = db.ListJobs(10, 3)
	if err != nil {
		t.Fatalf("Failed to list jobs with offset: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs after offset 3, got %d", len(jobs))
	}
}

// testGetJobsByStatus tests filtering jobs by status
func testGetJobsByStatus(t *testing.T, db *SQLiteDB) {
	jobs, err := db.GetJobsByStatus(StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("Failed to get jobs by status: %v", err)
	}
	if len(jobs) != 4 {
		t.Errorf("Expected 4 pending jobs, got %d", len(jobs))
	}
	for _, job := range jobs {
		if job.Status != StatusPending {
			t.Errorf("Expected pending status, got %s for %s", job.Status, job.ID)
		}
	}
}

// testUpdateJobStatus tests status transitions and finished_at stamping
func testUpdateJobStatus(t *testing.T, db *SQLiteDB) {
	err := db.UpdateJobStatus("test-job-2", StatusNoFootage, "no footage found for alert window")
	if err != nil {
		t.Fatalf("Failed to update job status: %v", err)
	}

	job, err := db.GetJob("test-job-2")
	if err != nil {
		t.Fatalf("Failed to get updated job: %v", err)
	}
	if job.Status != StatusNoFootage {
		t.Errorf("Expected status %s, got %s", StatusNoFootage, job.Status)
	}
	if job.ErrorMessage != "no footage found for alert window" {
		t.Errorf("Unexpected error message: %q", job.ErrorMessage)
	}
	if job.FinishedAt == nil {
		t.Error("Expected FinishedAt set for terminal status")
	}

	// Non-terminal status leaves finished_at unset
	err = db.UpdateJobStatus("test-job-3", StatusUploading, "")
	if err != nil {
		t.Fatalf("Failed to update job status: %v", err)
	}
	job, _ = db.GetJob("test-job-3")
	if job.FinishedAt != nil {
		t.Error("Expected nil FinishedAt for non-terminal status")
	}
}

// testUpdateJob tests updating a full job record
func testUpdateJob(t *testing.T, db *SQLiteDB) {
	job, err := db.GetJob("test-job-1")
	if err != nil || job == nil {
		t.Fatalf("Failed to get job for update: %v", err)
	}

	now := time.Now()
	job.Status = StatusDone
	job.FinishedAt = &now
	job.ChunkCount = 2
	job.Duration = 180.0
	job.Size = 52428800
	job.ClipURL = "https://bucket.s3.region.amazonaws.com/device/alert_clip_20251222_075030.mp4"
	job.ThumbnailURL = "https://bucket.s3.region.amazonaws.com/device/thumb_20251222_075030.jpg"
	job.OptimizationDegraded = true

	if err := db.UpdateJob(*job); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}

	updated, err := db.GetJob("test-job-1")
	if err != nil {
		t.Fatalf("Failed to get updated job: %v", err)
	}
	if updated.Status != StatusDone {
		t.Errorf("Expected status %s, got %s", StatusDone, updated.Status)
	}
	if updated.ChunkCount != 2 || updated.Duration != 180.0 {
		t.Errorf("Unexpected clip fields: %d chunks, %.1fs", updated.ChunkCount, updated.Duration)
	}
	if !updated.OptimizationDegraded {
		t.Error("Expected OptimizationDegraded to persist")
	}
	if updated.ClipURL == "" || updated.ThumbnailURL == "" {
		t.Error("Expected uploaded URLs to persist")
	}

	// Updating a missing job is an error
	missing := *job
	missing.ID = "does-not-exist"
	if err := db.UpdateJob(missing); err == nil {
		t.Error("Expected error updating missing job")
	}
}

// testCountJobsByStatus tests the status histogram
func testCountJobsByStatus(t *testing.T, db *SQLiteDB) {
	counts, err := db.CountJobsByStatus()
	if err != nil {
		t.Fatalf("Failed to count jobs: %v", err)
	}
	if counts[StatusDone] != 1 {
		t.Errorf("Expected 1 done job, got %d", counts[StatusDone])
	}
	if counts[StatusNoFootage] != 1 {
		t.Errorf("Expected 1 no_footage job, got %d", counts[StatusNoFootage])
	}
}

// testDeleteJob tests deleting a job
func testDeleteJob(t *testing.T, db *SQLiteDB) {
	if err := db.DeleteJob("test-job-5"); err != nil {
		t.Fatalf("Failed to delete job: %v", err)
	}
	job, err := db.GetJob("test-job-5")
	if err != nil {
		t.Fatalf("Unexpected error after delete: %v", err)
	}
	if job != nil {
		t.Error("Expected job to be deleted")
	}
}
