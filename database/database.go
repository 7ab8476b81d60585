package database

import (
	"time"
)

// JobStatus represents the current state of a clip job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"    // Job has been created but not started
	StatusProcessing JobStatus = "processing" // Clip is being extracted and assembled
	StatusUploading  JobStatus = "uploading"  // Clip is being uploaded to cloud storage
	StatusDone       JobStatus = "done"       // Clip uploaded and alert updated
	StatusNoFootage  JobStatus = "no_footage" // No chunks overlapped the alert window
	StatusFailed     JobStatus = "failed"     // Processing failed after all retries
)

// ClipJob represents one alert's clip extraction from start to finish
type ClipJob struct {
	ID                   string     `json:"id"`                   // Unique identifier for the job
	AlertID              string     `json:"alertId"`              // Alert this clip belongs to
	AlertTime            time.Time  `json:"alertTime"`            // Point in time the alert fired
	CreatedAt            time.Time  `json:"createdAt"`            // When the job was created
	FinishedAt           *time.Time `json:"finishedAt"`           // When the job reached a terminal state (nil while running)
	Status               JobStatus  `json:"status"`               // Current status
	Attempts             int        `json:"attempts"`             // Number of extraction attempts made
	ChunkCount           int        `json:"chunkCount"`           // Number of chunks assembled into the clip
	Duration             float64    `json:"duration"`             // Clip duration in seconds
	Size                 int64      `json:"size"`                 // Clip size in bytes
	LocalPath            string     `json:"localPath"`            // Path to the clip on disk
	ClipURL              string     `json:"clipUrl"`              // Public URL of the uploaded clip
	ThumbnailURL         string     `json:"thumbnailUrl"`         // Public URL of the uploaded thumbnail (empty if unavailable)
	OptimizationDegraded bool       `json:"optimizationDegraded"` // Clip delivered without faststart remux
	ErrorMessage         string     `json:"errorMessage"`         // Error message if processing failed
}

// Database defines the interface for clip job persistence
type Database interface {
	// Job operations
	CreateJob(job ClipJob) error
	GetJob(id string) (*ClipJob, error)
	GetJobByAlertID(alertID string) (*ClipJob, error)
	UpdateJob(job ClipJob) error
	ListJobs(limit, offset int) ([]ClipJob, error)
	DeleteJob(id string) error

	// Status operations
	GetJobsByStatus(status JobStatus, limit, offset int) ([]ClipJob, error)
	UpdateJobStatus(id string, status JobStatus, errorMsg string) error

	// Helper operations
	CountJobsByStatus() (map[JobStatus]int, error)
	Close() error
}
