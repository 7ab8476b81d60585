package api

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"alert-clipper/config"
	"alert-clipper/database"
	"alert-clipper/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"
)

// Server exposes read-only status endpoints for operators and serves the
// finished clips directory.
type Server struct {
	config    config.Config
	db        database.Database
	startedAt time.Time
}

func NewServer(cfg config.Config, db database.Database) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		startedAt: time.Now(),
	}
}

func (s *Server) Start() {
	r := gin.Default()
	s.setupCORS(r)
	s.setupRoutes(r)
	portAddr := ":" + s.config.ServerPort
	fmt.Printf("Starting API server on %s\n", portAddr)
	r.Run(portAddr)
}

func (s *Server) setupCORS(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
}

func (s *Server) setupRoutes(r *gin.Engine) {
	// Finished clips stay on disk until the daily cleanup, serve them for
	// local inspection
	r.Static("/clips", s.config.OutputDir)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.GET("/status", s.getStatus)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"device_id": s.config.DeviceID,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) getStatus(c *gin.Context) {
	counts, err := s.db.CountJobsByStatus()
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	usage, err := monitoring.GetResourceUsage(proc, s.config.OutputDir)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"jobs":            counts,
		"cpu":             usage.CPUPercent,
		"memory_used":     usage.MemoryUsedMB,
		"memory_total":    usage.MemoryTotalMB,
		"memory_percent":  usage.MemoryPercent,
		"goroutines":      usage.NumGoroutines,
		"scratch_free_mb": usage.ScratchFreeMB,
	})
}

// JobInfo is the dashboard row for one clip job
type JobInfo struct {
	ID           string  `json:"id"`
	AlertID      string  `json:"alertId"`
	AlertTime    string  `json:"alertTime"`
	Status       string  `json:"status"`
	Attempts     int     `json:"attempts"`
	Chunks       int     `json:"chunks"`
	Duration     string  `json:"duration"`
	Size         string  `json:"size"`
	ClipURL      string  `json:"clipUrl"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Degraded     bool    `json:"degraded"`
	Error        string  `json:"error"`
}

func (s *Server) listJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var jobs []database.ClipJob
	if status := c.Query("status"); status != "" {
		jobs, err = s.db.GetJobsByStatus(database.JobStatus(status), limit, offset)
	} else {
		jobs, err = s.db.ListJobs(limit, offset)
	}
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobInfo(j))
	}
	c.JSON(200, out)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.db.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}
	c.JSON(200, toJobInfo(*job))
}

func toJobInfo(j database.ClipJob) JobInfo {
	return JobInfo{
		ID:           j.ID,
		AlertID:      j.AlertID,
		AlertTime:    j.AlertTime.Format("2006-01-02 15:04:05"),
		Status:       string(j.Status),
		Attempts:     j.Attempts,
		Chunks:       j.ChunkCount,
		Duration:     fmt.Sprintf("%.0fs", j.Duration),
		Size:         fmt.Sprintf("%.1fMB", float64(j.Size)/1024/1024),
		ClipURL:      j.ClipURL,
		ThumbnailURL: j.ThumbnailURL,
		Degraded:     j.OptimizationDegraded,
		Error:        j.ErrorMessage,
	}
}
