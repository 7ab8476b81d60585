package monitoring

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type ResourceUsage struct {
	CPUPercent    float64
	MemoryUsedMB  float64
	MemoryTotalMB float64
	MemoryPercent float64
	NumGoroutines int
	ScratchFreeMB float64
}

// StartMonitoring logs resource usage at the given interval. scratchPath is
// the directory clips are assembled in, so its filesystem free space is the
// number that matters.
func StartMonitoring(interval time.Duration, scratchPath string) {
	go func() {
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			log.Printf("Error getting process: %v", err)
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			usage, err := GetResourceUsage(proc, scratchPath)
			if err != nil {
				log.Printf("Error getting resource usage: %v", err)
				continue
			}

			log.Printf("Resource Usage - CPU: %.2f%%, Memory: %.2f/%.2f MB (%.2f%%), Goroutines: %d, Scratch free: %.0f MB",
				usage.CPUPercent,
				usage.MemoryUsedMB,
				usage.MemoryTotalMB,
				usage.MemoryPercent,
				usage.NumGoroutines,
				usage.ScratchFreeMB)
		}
	}()
}

// GetResourceUsage collects process and host resource numbers
func GetResourceUsage(proc *process.Process, scratchPath string) (ResourceUsage, error) {
	var usage ResourceUsage

	// Get CPU usage
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return usage, fmt.Errorf("error getting CPU usage: %v", err)
	}
	usage.CPUPercent = cpuPercent

	// Get memory usage
	virtualMem, err := mem.VirtualMemory()
	if err != nil {
		return usage, fmt.Errorf("error getting memory info: %v", err)
	}

	procMem, err := proc.MemoryInfo()
	if err != nil {
		return usage, fmt.Errorf("error getting process memory: %v", err)
	}

	usage.MemoryUsedMB = float64(procMem.RSS) / 1024 / 1024 // Convert bytes to MB
	usage.MemoryTotalMB = float64(virtualMem.Total) / 1024 / 1024
	usage.MemoryPercent = float64(procMem.RSS) / float64(virtualMem.Total) * 100

	// Get number of goroutines
	usage.NumGoroutines = runtime.NumGoroutine()

	free, err := ScratchFreeMB(scratchPath)
	if err != nil {
		return usage, err
	}
	usage.ScratchFreeMB = free

	return usage, nil
}

// ScratchFreeMB returns the free space in megabytes on the filesystem
// holding path.
func ScratchFreeMB(path string) (float64, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("error getting disk usage for %s: %v", path, err)
	}
	return float64(stat.Free) / 1024 / 1024, nil
}

// CheckScratchSpace returns an error when the filesystem holding path has
// less than minFreeMB megabytes free. Extraction downloads chunks and writes
// intermediates to the same filesystem, so running it on a full disk only
// produces broken clips.
func CheckScratchSpace(path string, minFreeMB int) error {
	if minFreeMB <= 0 {
		return nil
	}
	free, err := ScratchFreeMB(path)
	if err != nil {
		return err
	}
	if free < float64(minFreeMB) {
		return fmt.Errorf("insufficient scratch space: %.0f MB free, %d MB required", free, minFreeMB)
	}
	return nil
}
