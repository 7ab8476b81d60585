package clip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeConcatList writes the ffmpeg concat-demuxer manifest referencing each
// segment by absolute path. Order must exactly match chunk time order;
// misordering produces a silently wrong clip.
func writeConcatList(listPath string, segmentPaths []string) error {
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list file: %w", err)
	}
	defer f.Close()

	for _, segment := range segmentPaths {
		absPath, err := filepath.Abs(segment)
		if err != nil {
			return fmt.Errorf("failed to resolve segment path %s: %w", segment, err)
		}
		absPath = strings.ReplaceAll(absPath, "\\", "/")
		if _, err := fmt.Fprintf(f, "file '%s'\n", absPath); err != nil {
			return fmt.Errorf("failed to write to concat list: %w", err)
		}
	}
	return nil
}

// concatSegments stream-copy concatenates the manifest's segments into
// outputPath and validates the result is non-empty.
func concatSegments(listPath, outputPath string) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
	if err := runFFmpeg(args, concatTimeout); err != nil {
		return err
	}
	return verifyNonEmpty(outputPath)
}

// optimizeFaststart remuxes the clip so the moov atom precedes the media
// data, letting browsers start playback before the file is fully downloaded.
// Stream copy only; the caller falls back to the unoptimized input when this
// fails.
func optimizeFaststart(inputPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
	if err := runFFmpeg(args, faststartTimeout); err != nil {
		return err
	}
	return verifyNonEmpty(outputPath)
}
