package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"alert-clipper/config"
	"alert-clipper/database"

	"github.com/gin-gonic/gin"
)

func testServer(t *testing.T) (*Server, *gin.Engine, *database.SQLiteDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewServer(config.Config{
		OutputDir: t.TempDir(),
		DeviceID:  "dev-1",
	}, db)

	r := gin.New()
	s.setupRoutes(r)
	return s, r, db
}

func seedJob(t *testing.T, db *database.SQLiteDB, id, alertID string, status database.JobStatus, createdAt time.Time) {
	t.Helper()
	job := database.ClipJob{
		ID:        id,
		AlertID:   alertID,
		AlertTime: createdAt,
		CreatedAt: createdAt,
		Status:    status,
	}
	if err := db.CreateJob(job); err != nil {
		t.Fatalf("Failed to seed job: %v", err)
	}
}

func TestGetHealth(t *testing.T) {
	_, r, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" || body["device_id"] != "dev-1" {
		t.Errorf("Unexpected health body: %v", body)
	}
}

func TestListJobs(t *testing.T) {
	_, r, db := testServer(t)

	base := time.Now()
	seedJob(t, db, "job-1", "alert-1", database.StatusDone, base)
	seedJob(t, db, "job-2", "alert-2", database.StatusFailed, base.Add(time.Second))
	seedJob(t, db, "job-3", "alert-3", database.StatusDone, base.Add(2*time.Second))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs?limit=2", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var jobs []JobInfo
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs with limit=2, got %d", len(jobs))
	}
	if jobs[0].ID != "job-3" {
		t.Errorf("Expected newest job first, got %s", jobs[0].ID)
	}

	// Status filter
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/jobs?status=failed", nil)
	r.ServeHTTP(w, req)
	jobs = nil
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-2" {
		t.Errorf("Expected only the failed job, got %v", jobs)
	}
}

func TestGetJobNotFound(t *testing.T) {
	_, r, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing job, got %d", w.Code)
	}
}
