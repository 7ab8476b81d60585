package clip

// generateThumbnail captures a single frame one second into the clip and
// letterboxes it onto a 1280x720 canvas. Thumbnail failure is non-fatal to
// the extraction; the caller logs a warning and proceeds without one.
func generateThumbnail(videoPath, thumbnailPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-vf", "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2",
		"-q:v", "2",
		thumbnailPath,
	}
	if err := runFFmpeg(args, thumbnailTimeout); err != nil {
		return err
	}
	return verifyNonEmpty(thumbnailPath)
}
