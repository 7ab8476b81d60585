package service

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"alert-clipper/clip"
)

// CleanupRecordings deletes local chunk files recorded on the given day.
// Chunks from other days are left alone so an interrupted run can still find
// its footage. Returns the number of files removed.
func CleanupRecordings(dir string, pattern *clip.ChunkPattern, day time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read recordings directory %s: %v", dir, err)
	}

	y, m, d := day.Date()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		start, ok := pattern.ParseStart(entry.Name())
		if !ok {
			continue
		}
		sy, sm, sd := start.Date()
		if sy != y || sm != m || sd != d {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("Cleanup: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("Cleanup: removed %d chunk files for %s from %s", removed, day.Format("2006-01-02"), dir)
	}
	return removed, nil
}
