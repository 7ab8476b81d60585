package main

import (
	"log"
	"time"

	"alert-clipper/api"
	"alert-clipper/clip"
	"alert-clipper/config"
	"alert-clipper/cron"
	"alert-clipper/database"
	"alert-clipper/monitoring"
	"alert-clipper/service"
	"alert-clipper/storage"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load config
	cfg := config.LoadConfig()
	cfg.DeviceID = service.ResolveDeviceID()
	log.Printf("Device ID: %s", cfg.DeviceID)

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Ensure all required directories exist
	if err := config.EnsurePaths(cfg); err != nil {
		log.Fatal("Failed to create directories: ", err)
	}

	// Initialize database
	db, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize SQLite database: ", err)
	}
	defer db.Close()

	// Compile the chunk filename pattern once, both catalog flavors use it
	pattern, err := clip.NewChunkPattern(cfg.ChunkFilenamePattern)
	if err != nil {
		log.Fatal("Invalid chunk filename pattern: ", err)
	}

	chunkDuration := time.Duration(cfg.ChunkDurationSeconds) * time.Second

	// Chunk source and clip upload target. Local source mode skips S3
	// entirely and keeps finished clips on disk.
	var catalog clip.Catalog
	var uploader service.Uploader
	if cfg.LocalSourceDir != "" {
		catalog = clip.NewLocalCatalog(cfg.LocalSourceDir, pattern, chunkDuration)
	} else {
		s3Storage, err := storage.NewS3Storage(storage.S3Config{
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			BaseURL:   cfg.S3BaseURL,
		})
		if err != nil {
			log.Fatal("Failed to initialize S3 storage: ", err)
		}
		catalog = clip.NewS3Catalog(s3Storage, cfg.S3SourcePrefix, pattern, chunkDuration)
		uploader = s3Storage
	}

	extractor := clip.NewExtractor(catalog, clip.Options{
		Before:        time.Duration(cfg.BeforeMinutes) * time.Minute,
		After:         time.Duration(cfg.AfterMinutes) * time.Minute,
		ChunkDuration: chunkDuration,
		OutputDir:     cfg.OutputDir,
	})

	alertsClient := api.NewAlertsClient(cfg.APIBaseURL, cfg.AlertsEndpoint, cfg.SecondaryVideoEndpoint, cfg.StoreID)
	statusFile := service.NewStatusFile("")
	processor := service.NewProcessor(db, alertsClient, uploader, extractor, statusFile, cfg)

	// Background workers
	cron.StartProcessingCron(cfg, processor)
	monitoring.StartMonitoring(5*time.Minute, cfg.OutputDir)

	// Status HTTP surface blocks until shutdown
	server := api.NewServer(cfg, db)
	server.Start()
}
