package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"alert-clipper/api"
	"alert-clipper/clip"
	"alert-clipper/config"
	"alert-clipper/database"
	"alert-clipper/monitoring"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ClipExtractor produces a clip artifact for an alert instant
type ClipExtractor interface {
	ExtractClip(alertTime time.Time) (*clip.ClipArtifact, error)
}

// Uploader pushes a local file to cloud storage and returns its public URL
type Uploader interface {
	UploadFile(localPath, remotePath string) (string, error)
}

// AlertsAPI is the slice of the backend client the processor needs
type AlertsAPI interface {
	GetAlerts(date string) ([]api.Alert, error)
	UpdateSecondaryVideo(alertID, videoURL, imageURL string) error
}

// Processor runs the per-alert pipeline: extract, upload, notify, journal.
type Processor struct {
	db           database.Database
	alerts       AlertsAPI
	uploader     Uploader // nil in local-only mode
	extractor    ClipExtractor
	status       *StatusFile
	chunkPattern *clip.ChunkPattern
	config       config.Config
}

// NewProcessor creates a processor. uploader may be nil, in which case clips
// stay on disk and no backend notification is sent.
func NewProcessor(db database.Database, alerts AlertsAPI, uploader Uploader, extractor ClipExtractor, status *StatusFile, cfg config.Config) *Processor {
	pattern, err := clip.NewChunkPattern(cfg.ChunkFilenamePattern)
	if err != nil {
		// Config.Validate compiles the same pattern at startup
		log.Printf("Processor: invalid chunk filename pattern, cleanup disabled: %v", err)
	}
	return &Processor{
		db:           db,
		alerts:       alerts,
		uploader:     uploader,
		extractor:    extractor,
		status:       status,
		chunkPattern: pattern,
		config:       cfg,
	}
}

// ProcessDate fetches the alerts for a date (YYYY-MM-DD) and processes each
// one independently. One alert's failure never aborts the batch.
func (p *Processor) ProcessDate(date string) error {
	runID := uuid.NewString()[:8]

	status, err := p.status.Read()
	if err != nil {
		log.Printf("Processor[%s]: could not read status file: %v", runID, err)
	}
	if status.State == StateProcessing {
		log.Printf("Processor[%s]: a run is already in progress (%s), skipping", runID, status.Date)
		return nil
	}
	if status.State == StateFinished && status.Date == date {
		log.Printf("Processor[%s]: date %s already processed, skipping", runID, date)
		return nil
	}

	alerts, err := p.alerts.GetAlerts(date)
	if err != nil {
		return fmt.Errorf("failed to fetch alerts for %s: %v", date, err)
	}
	log.Printf("Processor[%s]: %d alerts to process for %s", runID, len(alerts), date)

	total := len(alerts)
	if err := p.status.Write(RunStatus{State: StateProcessing, Date: date, Processed: 0, Total: total}); err != nil {
		log.Printf("Processor[%s]: %v", runID, err)
	}

	sem := semaphore.NewWeighted(int64(p.config.AlertConcurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex
	processed := 0

	for _, alert := range alerts {
		if err := sem.Acquire(context.Background(), 1); err != nil {
			log.Printf("Processor[%s]: error acquiring semaphore for alert %s: %v", runID, alert.ID, err)
			continue
		}

		wg.Add(1)
		go func(alert api.Alert) {
			defer wg.Done()
			defer sem.Release(1)

			if err := p.ProcessAlert(alert); err != nil {
				log.Printf("Processor[%s]: alert %s failed: %v", runID, alert.ID, err)
			}

			mu.Lock()
			processed++
			done := processed
			mu.Unlock()
			if err := p.status.Write(RunStatus{State: StateProcessing, Date: date, Processed: done, Total: total}); err != nil {
				log.Printf("Processor[%s]: %v", runID, err)
			}
		}(alert)
	}

	wg.Wait()

	if err := p.status.Write(RunStatus{State: StateFinished, Date: date, Processed: processed, Total: total}); err != nil {
		log.Printf("Processor[%s]: %v", runID, err)
	}
	log.Printf("Processor[%s]: run for %s finished, %d/%d alerts processed", runID, date, processed, total)

	if p.config.LocalSourceDir != "" && p.chunkPattern != nil {
		if day, err := time.Parse("2006-01-02", date); err == nil {
			if _, err := CleanupRecordings(p.config.LocalSourceDir, p.chunkPattern, day); err != nil {
				log.Printf("Processor[%s]: recordings cleanup failed: %v", runID, err)
			}
		}
	}

	return nil
}

// ProcessAlert runs the full pipeline for one alert. Re-invocation for an
// alert that already has a finished clip is a no-op.
func (p *Processor) ProcessAlert(alert api.Alert) error {
	existing, err := p.db.GetJobByAlertID(alert.ID)
	if err != nil {
		return fmt.Errorf("failed to look up existing job: %v", err)
	}
	if existing != nil && existing.Status == database.StatusDone {
		log.Printf("Processor: alert %s already has a clip, skipping", alert.ID)
		return nil
	}

	if err := monitoring.CheckScratchSpace(p.config.OutputDir, p.config.MinFreeScratchMB); err != nil {
		return err
	}

	job := database.ClipJob{
		ID:        uuid.NewString(),
		AlertID:   alert.ID,
		AlertTime: alert.AlertDate,
		CreatedAt: time.Now(),
		Status:    database.StatusProcessing,
	}
	if err := p.db.CreateJob(job); err != nil {
		return fmt.Errorf("failed to create job record: %v", err)
	}

	artifact, err := p.extractWithRetry(&job, alert)
	if err != nil {
		if errors.Is(err, clip.ErrNoFootageFound) {
			// Absence of footage is a terminal outcome, not a failure
			p.finishJob(&job, database.StatusNoFootage, err.Error())
			log.Printf("Processor: no footage for alert %s at %s", alert.ID, alert.AlertDate.Format(time.RFC3339))
			return nil
		}
		p.finishJob(&job, database.StatusFailed, err.Error())
		return fmt.Errorf("extraction failed after %d attempts: %v", job.Attempts, err)
	}

	job.ChunkCount = artifact.ChunkCount
	job.OptimizationDegraded = artifact.Degraded
	job.LocalPath = artifact.VideoPath
	if info, err := os.Stat(artifact.VideoPath); err == nil {
		job.Size = info.Size()
	}
	if duration, err := clip.GetVideoDuration(artifact.VideoPath); err == nil {
		job.Duration = duration
	} else {
		log.Printf("Processor: could not probe clip duration for alert %s: %v", alert.ID, err)
	}
	if artifact.Degraded {
		log.Printf("Processor: clip for alert %s delivered without faststart optimization", alert.ID)
	}

	if p.uploader == nil {
		// Local-only mode: the clip stays on disk, nothing is reported upstream
		p.finishJob(&job, database.StatusDone, "")
		log.Printf("Processor: alert %s clip ready at %s (local mode)", alert.ID, artifact.VideoPath)
		return nil
	}

	job.Status = database.StatusUploading
	if err := p.db.UpdateJob(job); err != nil {
		log.Printf("Processor: failed to record uploading status for alert %s: %v", alert.ID, err)
	}

	prefix := p.config.UploadPrefix()
	clipURL, err := p.uploader.UploadFile(artifact.VideoPath, prefix+filepath.Base(artifact.VideoPath))
	if err != nil {
		p.finishJob(&job, database.StatusFailed, fmt.Sprintf("clip upload failed: %v", err))
		return fmt.Errorf("clip upload failed: %v", err)
	}
	job.ClipURL = clipURL

	if artifact.ThumbnailPath != "" {
		thumbURL, err := p.uploader.UploadFile(artifact.ThumbnailPath, prefix+filepath.Base(artifact.ThumbnailPath))
		if err != nil {
			// Clip delivery does not depend on the thumbnail
			log.Printf("Processor: thumbnail upload failed for alert %s: %v", alert.ID, err)
		} else {
			job.ThumbnailURL = thumbURL
		}
	}

	if err := p.alerts.UpdateSecondaryVideo(alert.ID, job.ClipURL, job.ThumbnailURL); err != nil {
		p.finishJob(&job, database.StatusFailed, fmt.Sprintf("alert update failed: %v", err))
		return fmt.Errorf("failed to report clip for alert %s: %v", alert.ID, err)
	}

	p.finishJob(&job, database.StatusDone, "")
	log.Printf("Processor: alert %s done, clip %s (%d chunks, %.0fs)",
		alert.ID, job.ClipURL, job.ChunkCount, job.Duration)
	return nil
}

// extractWithRetry wraps whole extraction attempts in a retry loop with
// exponential backoff. Footage absence is never retried.
func (p *Processor) extractWithRetry(job *database.ClipJob, alert api.Alert) (*clip.ClipArtifact, error) {
	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		job.Attempts = attempt
		if err := p.db.UpdateJob(*job); err != nil {
			log.Printf("Processor: failed to record attempt %d for alert %s: %v", attempt, alert.ID, err)
		}

		artifact, err := p.extractor.ExtractClip(alert.AlertDate)
		if err == nil {
			return artifact, nil
		}
		if errors.Is(err, clip.ErrNoFootageFound) {
			return nil, err
		}

		lastErr = err
		log.Printf("Processor: extraction attempt %d/%d failed for alert %s: %v",
			attempt, p.config.MaxRetries, alert.ID, err)
		if attempt < p.config.MaxRetries {
			delay := time.Duration(p.config.RetryDelaySeconds<<uint(attempt-1)) * time.Second
			time.Sleep(delay)
		}
	}
	return nil, lastErr
}

// finishJob records a terminal state for the job
func (p *Processor) finishJob(job *database.ClipJob, status database.JobStatus, errorMsg string) {
	now := time.Now()
	job.Status = status
	job.ErrorMessage = errorMsg
	job.FinishedAt = &now
	if err := p.db.UpdateJob(*job); err != nil {
		log.Printf("Processor: failed to record %s status for job %s: %v", status, job.ID, err)
	}
}
