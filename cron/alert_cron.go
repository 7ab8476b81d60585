package cron

import (
	"log"
	"time"

	"alert-clipper/config"
	"alert-clipper/service"

	"github.com/robfig/cron/v3"
)

// StartProcessingCron schedules the alert processing run. The first run
// happens shortly after startup so a restart mid-day picks up pending alerts
// without waiting for the next tick.
func StartProcessingCron(cfg config.Config, processor *service.Processor) {
	go func() {
		// Initial delay before first run (10 seconds)
		time.Sleep(10 * time.Second)

		runProcessing(cfg, processor)

		schedule := cron.New()
		_, err := schedule.AddFunc(cfg.ProcessSchedule, func() {
			runProcessing(cfg, processor)
		})
		if err != nil {
			log.Fatalf("AlertCron: error scheduling processing run: %v", err)
		}

		schedule.Start()
		log.Printf("AlertCron: alert processing cron started with schedule %q", cfg.ProcessSchedule)
	}()
}

// runProcessing resolves the target date and runs the batch once
func runProcessing(cfg config.Config, processor *service.Processor) {
	date := targetDate(cfg, time.Now())
	log.Printf("AlertCron: running alert processing for %s", date)
	if err := processor.ProcessDate(date); err != nil {
		log.Printf("AlertCron: processing run for %s failed: %v", date, err)
	}
}

// targetDate applies the configured date cursor offset
func targetDate(cfg config.Config, now time.Time) string {
	return now.AddDate(0, 0, -cfg.DateOffsetDays).Format("2006-01-02")
}
