package clip

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ClipArtifact is the final assembled clip handed back to the caller. The
// caller owns both files and is responsible for upload and eventual deletion;
// the extractor never deletes a successfully produced artifact.
type ClipArtifact struct {
	VideoPath     string
	ThumbnailPath string // empty when thumbnail generation failed
	Degraded      bool   // faststart remux failed; unoptimized clip in use
	Window        TimeWindow
	ChunkCount    int
}

// Options configures an Extractor.
type Options struct {
	Before        time.Duration // look-back margin from the alert instant
	After         time.Duration // look-ahead margin from the alert instant
	ChunkDuration time.Duration
	OutputDir     string // final artifacts land here; scratch dirs are nested under it
}

// Extractor assembles alert clips from a chunk catalog. One call processes
// one alert synchronously; calls for different alerts may run concurrently
// because each owns a scratch directory derived from its alert instant.
type Extractor struct {
	catalog Catalog
	opts    Options
}

// NewExtractor creates an extractor over the given catalog.
func NewExtractor(catalog Catalog, opts Options) *Extractor {
	return &Extractor{catalog: catalog, opts: opts}
}

// ExtractClip locates the chunks covering the alert window, trims and
// concatenates them, and post-processes the result for progressive playback.
//
// The operation is all-or-nothing per attempt: any download or trim failure
// aborts the whole extraction and removes every scratch file created so far.
// Fatal outcomes are returned as typed errors (ErrNoFootageFound,
// *CredentialError, *CatalogError, *ExtractionError, *AssemblyError) with a
// nil artifact; retry policy belongs to the caller. Faststart and thumbnail
// failures are absorbed and reflected in the artifact's Degraded and
// ThumbnailPath fields.
func (e *Extractor) ExtractClip(alertTime time.Time) (*ClipArtifact, error) {
	log.Printf("Extractor: starting clip extraction for alert time %s", alertTime.Format(time.RFC3339))

	if err := e.catalog.CheckAccess(); err != nil {
		return nil, &CredentialError{Err: err}
	}

	window := NewTimeWindow(alertTime, e.opts.Before, e.opts.After)
	log.Printf("Extractor: clip time window %s to %s",
		window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	chunks, err := e.catalog.ListChunks()
	if err != nil {
		return nil, &CatalogError{Err: err}
	}

	selected := SelectChunks(chunks, window)
	if len(selected) == 0 {
		log.Printf("Extractor: no chunks intersect window %s to %s",
			window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
		return nil, ErrNoFootageFound
	}
	log.Printf("Extractor: %d chunk(s) intersect the time window", len(selected))

	// Every intermediate file lives in a scratch directory namespaced by the
	// alert instant, so concurrent extractions for different alerts cannot
	// collide and abort cleanup is a single RemoveAll.
	timestamp := alertTime.Format("20060102_150405")
	scratchDir := filepath.Join(e.opts.OutputDir, fmt.Sprintf("extract_%s", timestamp))
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("failed to create scratch directory: %w", err)}
	}

	artifact, err := e.assembleClip(scratchDir, timestamp, window, selected)
	if removeErr := os.RemoveAll(scratchDir); removeErr != nil {
		log.Printf("Extractor: warning: failed to remove scratch directory %s: %v", scratchDir, removeErr)
	}
	if err != nil {
		return nil, err
	}

	// Thumbnail failure is non-fatal; the clip alone is a valid artifact.
	thumbnailPath := filepath.Join(e.opts.OutputDir, fmt.Sprintf("thumb_%s.jpg", timestamp))
	if err := generateThumbnail(artifact.VideoPath, thumbnailPath); err != nil {
		log.Printf("Extractor: warning: thumbnail generation failed: %v", err)
		os.Remove(thumbnailPath)
	} else {
		artifact.ThumbnailPath = thumbnailPath
		log.Printf("Extractor: thumbnail generated: %s", thumbnailPath)
	}

	if info, err := os.Stat(artifact.VideoPath); err == nil {
		log.Printf("Extractor: clip created: %s (%.2f MB)",
			artifact.VideoPath, float64(info.Size())/1024/1024)
	}
	return artifact, nil
}

// assembleClip runs the per-chunk trims and the concatenation inside the
// scratch directory, moving only the final clip out to the output directory.
// On any error the caller removes the scratch directory wholesale.
func (e *Extractor) assembleClip(scratchDir, timestamp string, window TimeWindow, selected []Chunk) (*ClipArtifact, error) {
	outputPath := filepath.Join(e.opts.OutputDir, fmt.Sprintf("alert_clip_%s.mp4", timestamp))

	segmentPaths := make([]string, 0, len(selected))
	for i, chunk := range selected {
		log.Printf("Extractor: processing chunk %d/%d: %s", i+1, len(selected), chunk.Name)

		localPath, err := e.catalog.Materialize(chunk, scratchDir)
		if err != nil {
			return nil, &ExtractionError{Chunk: chunk.Name, Err: err}
		}

		offset, duration := segmentBounds(chunk, window)
		log.Printf("Extractor: trimming segment offset=%s duration=%s",
			formatSeconds(offset), formatSeconds(duration))

		segmentPath := filepath.Join(scratchDir, fmt.Sprintf("part_%d.mp4", i))
		if err := extractSegment(localPath, segmentPath, offset, duration); err != nil {
			return nil, &ExtractionError{Chunk: chunk.Name, Err: err}
		}
		segmentPaths = append(segmentPaths, segmentPath)
	}

	listPath := filepath.Join(scratchDir, "concat.txt")
	if err := writeConcatList(listPath, segmentPaths); err != nil {
		return nil, &AssemblyError{Err: err}
	}

	log.Printf("Extractor: concatenating %d segment(s)", len(segmentPaths))
	concatPath := filepath.Join(scratchDir, "combined.mp4")
	if err := concatSegments(listPath, concatPath); err != nil {
		return nil, &AssemblyError{Err: err}
	}

	artifact := &ClipArtifact{
		VideoPath:  outputPath,
		Window:     window,
		ChunkCount: len(selected),
	}

	// Faststart remux may fail independently; the unoptimized concat output
	// is a degraded but valid result, surfaced via artifact.Degraded rather
	// than swallowed.
	optimizedPath := filepath.Join(scratchDir, "combined_faststart.mp4")
	if err := optimizeFaststart(concatPath, optimizedPath); err != nil {
		log.Printf("Extractor: warning: faststart optimization failed, using unoptimized clip: %v", err)
		artifact.Degraded = true
		optimizedPath = concatPath
	}

	if err := os.Rename(optimizedPath, outputPath); err != nil {
		return nil, &AssemblyError{Err: fmt.Errorf("failed to move clip to output path: %w", err)}
	}
	if err := verifyNonEmpty(outputPath); err != nil {
		os.Remove(outputPath)
		return nil, &AssemblyError{Err: err}
	}
	return artifact, nil
}
