package clip

import (
	"fmt"
	"os"
	"time"
)

// extractSegment trims [offset, offset+duration) out of a local chunk file
// into segmentPath using a stream copy. Cut points land on keyframe-adjacent
// boundaries; no re-encode is attempted.
func extractSegment(chunkPath, segmentPath string, offset, duration time.Duration) error {
	args := []string{
		"-y",
		"-ss", formatSeconds(offset),
		"-i", chunkPath,
		"-t", formatSeconds(duration),
		"-c", "copy",
		segmentPath,
	}
	if err := runFFmpeg(args, segmentTimeout); err != nil {
		return err
	}
	return verifyNonEmpty(segmentPath)
}

// verifyNonEmpty fails when the produced file is missing or zero bytes, which
// ffmpeg can leave behind on some error paths despite a zero exit code.
func verifyNonEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file %s is empty", path)
	}
	return nil
}
