package clip

import (
	"bytes"
	"fmt"
	"os/exec"
	"time"
)

// Per-stage subprocess timeouts. A timeout is treated identically to a
// nonzero exit; retries happen at the caller level around whole extractions,
// never inside a stage.
const (
	segmentTimeout   = 60 * time.Second
	concatTimeout    = 300 * time.Second
	faststartTimeout = 300 * time.Second
	thumbnailTimeout = 60 * time.Second
)

// runFFmpeg executes ffmpeg with the given arguments and kills the process
// if it exceeds the timeout.
func runFFmpeg(args []string, timeout time.Duration) error {
	cmd := exec.Command("ffmpeg", args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, output.String())
		}
		return nil
	case <-time.After(timeout):
		cmd.Process.Kill()
		<-done
		return fmt.Errorf("ffmpeg timed out after %s", timeout)
	}
}

// GetVideoDuration returns the duration of a video file in seconds using
// ffprobe.
func GetVideoDuration(videoPath string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", videoPath, err)
	}
	var dur float64
	if _, err := fmt.Sscanf(string(output), "%f", &dur); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", string(output), err)
	}
	return dur, nil
}

// formatSeconds renders a duration as fractional seconds for ffmpeg seek and
// duration arguments.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
