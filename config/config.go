package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultChunkFilenamePattern matches chunk files named like
// gcam_22122025_075030.mp4 (prefix, DDMMYYYY date, HHMMSS time).
const DefaultChunkFilenamePattern = `gcam_(\d{2})(\d{2})(\d{4})_(\d{2})(\d{2})(\d{2})\.mp4`

// Config contains all configuration for the application
type Config struct {
	// Clip Configuration
	BeforeMinutes        int    // Minutes of footage before the alert instant
	AfterMinutes         int    // Minutes of footage after the alert instant
	ChunkDurationSeconds int    // Fixed duration of every recorded chunk
	ChunkFilenamePattern string // Regex for chunk filenames (date/time capture groups)
	OutputDir            string // Scratch and output directory for clip assembly
	LocalSourceDir       string // Local chunk directory; empty means S3 source

	// AWS / S3 Configuration
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string
	S3Bucket       string
	S3SourcePrefix string // Key prefix where camera chunks live
	S3UploadPrefix string // Key prefix for uploaded clips; {device-id} is expanded
	S3BaseURL      string // Public URL override; empty derives the standard S3 URL

	// API Configuration
	APIBaseURL             string
	AlertsEndpoint         string
	SecondaryVideoEndpoint string
	StoreID                string

	// Processing Configuration
	MaxRetries        int // Extraction attempts per alert
	RetryDelaySeconds int // Initial delay between attempts (doubles each retry)
	AlertConcurrency  int // Max alerts processed at once (1 = sequential)
	DateOffsetDays    int // Days back from today for the processed date (0 = today)

	// Server Configuration
	ServerPort string

	// Database Configuration
	DatabasePath string

	// Monitoring Configuration
	MinFreeScratchMB int // Minimum free space on the scratch volume before extracting

	// Cron Configuration
	ProcessSchedule string // cron spec for the daily processing run

	// Device identity, resolved at startup
	DeviceID string
}

// LoadConfig loads configuration from environment variables with defaults
// matching the production deployment.
func LoadConfig() Config {
	cfg := Config{
		BeforeMinutes:        getEnvInt("CLIP_BEFORE_MINUTES", 2),
		AfterMinutes:         getEnvInt("CLIP_AFTER_MINUTES", 1),
		ChunkDurationSeconds: getEnvInt("CHUNK_DURATION_SECONDS", 300),
		ChunkFilenamePattern: getEnv("CHUNK_FILENAME_PATTERN", DefaultChunkFilenamePattern),
		OutputDir:            getEnv("OUTPUT_DIR", "./clips"),
		LocalSourceDir:       getEnv("LOCAL_SOURCE_DIR", ""),

		AWSRegion:      getEnv("AWS_DEFAULT_REGION", getEnv("AWS_REGION", "")),
		AWSAccessKey:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3SourcePrefix: getEnv("S3_SOURCE_PREFIX", ""),
		S3UploadPrefix: getEnv("S3_UPLOAD_PREFIX", "alerts/"),
		S3BaseURL:      getEnv("S3_BASE_URL", ""),

		APIBaseURL:             getEnv("API_BASE_URL", ""),
		AlertsEndpoint:         getEnv("ALERTS_ENDPOINT", "/api/alerts"),
		SecondaryVideoEndpoint: getEnv("SECONDARY_VIDEO_ENDPOINT", "/api/alerts/{alert_id}/secondary-video"),
		StoreID:                getEnv("STORE_ID", ""),

		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryDelaySeconds: getEnvInt("RETRY_DELAY_SECONDS", 2),
		AlertConcurrency:  getEnvInt("ALERT_CONCURRENCY", 1),
		DateOffsetDays:    getEnvInt("DATE_OFFSET_DAYS", 0),

		ServerPort:   getEnv("SERVER_PORT", "3000"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/clips.db"),

		MinFreeScratchMB: getEnvInt("MIN_FREE_SCRATCH_MB", 512),

		ProcessSchedule: getEnv("PROCESS_SCHEDULE", "@every 30m"),
	}

	if cfg.LocalSourceDir != "" {
		log.Printf("Config: using local chunk source directory %s", cfg.LocalSourceDir)
	} else {
		log.Printf("Config: using S3 chunk source s3://%s/%s (region %s)",
			cfg.S3Bucket, cfg.S3SourcePrefix, cfg.AWSRegion)
	}
	log.Printf("Config: clip window %dm before / %dm after, chunk duration %ds",
		cfg.BeforeMinutes, cfg.AfterMinutes, cfg.ChunkDurationSeconds)

	return cfg
}

// Validate checks that the configuration is internally consistent. It is
// called once at startup so bad deployments fail before any alert is touched.
func (cfg *Config) Validate() error {
	if cfg.BeforeMinutes < 0 || cfg.AfterMinutes < 0 {
		return fmt.Errorf("clip margins must be non-negative (before=%d, after=%d)",
			cfg.BeforeMinutes, cfg.AfterMinutes)
	}
	if cfg.ChunkDurationSeconds <= 0 {
		return fmt.Errorf("chunk duration must be positive, got %d", cfg.ChunkDurationSeconds)
	}
	if _, err := regexp.Compile(cfg.ChunkFilenamePattern); err != nil {
		return fmt.Errorf("invalid chunk filename pattern %q: %w", cfg.ChunkFilenamePattern, err)
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must be set")
	}
	if cfg.LocalSourceDir == "" {
		// S3 source requires bucket and region
		if cfg.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when LOCAL_SOURCE_DIR is not configured")
		}
		if cfg.AWSRegion == "" {
			return fmt.Errorf("AWS region must be set when LOCAL_SOURCE_DIR is not configured")
		}
	}
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must be set")
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.AlertConcurrency < 1 {
		return fmt.Errorf("ALERT_CONCURRENCY must be at least 1, got %d", cfg.AlertConcurrency)
	}
	return nil
}

// UploadPrefix returns the S3 upload prefix with the {device-id} placeholder
// expanded and a trailing slash guaranteed.
func (cfg *Config) UploadPrefix() string {
	prefix := strings.ReplaceAll(cfg.S3UploadPrefix, "{device-id}", cfg.DeviceID)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// EnsurePaths creates the directories the application writes to.
func EnsurePaths(cfg Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}
	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}
	return nil
}

// getEnv returns environment variable or fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback value
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Config: invalid integer for %s (%q), using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}
