package clip

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Chunk represents one fixed-duration recorded video file covering a known
// time interval. The interval is derived entirely from the filename; chunk
// content is never introspected.
type Chunk struct {
	Location string    // S3 key or local path
	Name     string    // basename
	Start    time.Time // parsed from the filename
	End      time.Time // Start + the configured chunk duration
}

// Catalog enumerates available chunks and materializes them locally.
// Implementations exist for S3-backed and local-directory sources; matching,
// sorting, and interval derivation behave identically across both.
type Catalog interface {
	// CheckAccess verifies the backend is reachable and authorized. Local
	// sources only verify the directory exists.
	CheckAccess() error
	// ListChunks returns every matching chunk sorted ascending by start
	// time. An empty result means the source is reachable but holds no
	// matching footage; it is not an error.
	ListChunks() ([]Chunk, error)
	// Materialize makes the chunk readable at a local path, downloading
	// into destDir when the source is remote. Local sources return the
	// original path untouched.
	Materialize(chunk Chunk, destDir string) (string, error)
}

// ChunkPattern parses chunk start times out of filenames. The regexp must
// capture six groups in order: day, month, year, hour, minute, second.
type ChunkPattern struct {
	re *regexp.Regexp
}

// NewChunkPattern compiles the filename pattern and validates its shape.
func NewChunkPattern(pattern string) (*ChunkPattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk filename pattern: %w", err)
	}
	if re.NumSubexp() != 6 {
		return nil, fmt.Errorf("chunk filename pattern must capture 6 groups (DD MM YYYY HH MM SS), got %d", re.NumSubexp())
	}
	return &ChunkPattern{re: re}, nil
}

// ParseStart extracts the chunk start time from a filename. The second
// return value is false when the name does not match; non-matching names are
// skipped by catalogs rather than treated as errors.
func (p *ChunkPattern) ParseStart(name string) (time.Time, bool) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	fields := make([]int, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		fields[i] = v
	}
	d, mo, y, h, mi, s := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h > 23 || mi > 59 || s > 59 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC), true
}

// sortChunks orders chunks ascending by start time, breaking ties by name so
// listings are deterministic.
func sortChunks(chunks []Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Start.Equal(chunks[j].Start) {
			return chunks[i].Name < chunks[j].Name
		}
		return chunks[i].Start.Before(chunks[j].Start)
	})
}

// ObjectStore is the subset of the storage client the S3 catalog needs.
type ObjectStore interface {
	CheckAccess() error
	ListObjectKeys(prefix string) ([]string, error)
	DownloadFile(key, localPath string) error
}

// S3Catalog lists chunks from an S3 prefix.
type S3Catalog struct {
	store         ObjectStore
	prefix        string
	pattern       *ChunkPattern
	chunkDuration time.Duration
}

// NewS3Catalog creates a catalog backed by S3 object listings.
func NewS3Catalog(store ObjectStore, prefix string, pattern *ChunkPattern, chunkDuration time.Duration) *S3Catalog {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Catalog{
		store:         store,
		prefix:        prefix,
		pattern:       pattern,
		chunkDuration: chunkDuration,
	}
}

// CheckAccess probes bucket reachability and credentials.
func (c *S3Catalog) CheckAccess() error {
	return c.store.CheckAccess()
}

// ListChunks enumerates objects under the configured prefix and derives each
// chunk's interval from its filename.
func (c *S3Catalog) ListChunks() ([]Chunk, error) {
	keys, err := c.store.ListObjectKeys(c.prefix)
	if err != nil {
		return nil, fmt.Errorf("s3 listing failed: %w", err)
	}

	var chunks []Chunk
	for _, key := range keys {
		name := filepath.Base(key)
		start, ok := c.pattern.ParseStart(name)
		if !ok {
			continue
		}
		chunks = append(chunks, Chunk{
			Location: key,
			Name:     name,
			Start:    start,
			End:      start.Add(c.chunkDuration),
		})
	}

	sortChunks(chunks)
	log.Printf("Catalog: found %d video chunks in s3 prefix %s", len(chunks), c.prefix)
	return chunks, nil
}

// Materialize downloads the chunk into destDir and returns the local path.
func (c *S3Catalog) Materialize(chunk Chunk, destDir string) (string, error) {
	localPath := filepath.Join(destDir, chunk.Name)
	if err := c.store.DownloadFile(chunk.Location, localPath); err != nil {
		return "", fmt.Errorf("failed to download chunk %s: %w", chunk.Location, err)
	}
	return localPath, nil
}

// LocalCatalog lists chunks from a local directory.
type LocalCatalog struct {
	dir           string
	pattern       *ChunkPattern
	chunkDuration time.Duration
}

// NewLocalCatalog creates a catalog backed by a local chunk directory.
func NewLocalCatalog(dir string, pattern *ChunkPattern, chunkDuration time.Duration) *LocalCatalog {
	return &LocalCatalog{
		dir:           dir,
		pattern:       pattern,
		chunkDuration: chunkDuration,
	}
}

// CheckAccess only verifies the directory exists; there are no credentials
// for a local source.
func (c *LocalCatalog) CheckAccess() error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("chunk source directory %s: %w", c.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("chunk source path %s is not a directory", c.dir)
	}
	return nil
}

// ListChunks scans the directory for matching chunk files.
func (c *LocalCatalog) ListChunks() ([]Chunk, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk directory %s: %w", c.dir, err)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		start, ok := c.pattern.ParseStart(name)
		if !ok {
			continue
		}
		chunks = append(chunks, Chunk{
			Location: filepath.Join(c.dir, name),
			Name:     name,
			Start:    start,
			End:      start.Add(c.chunkDuration),
		})
	}

	sortChunks(chunks)
	log.Printf("Catalog: found %d video chunks in local directory %s", len(chunks), c.dir)
	return chunks, nil
}

// Materialize returns the local path unchanged. The source file is owned by
// the recorder, never by the extractor, so it must not be copied or deleted.
func (c *LocalCatalog) Materialize(chunk Chunk, destDir string) (string, error) {
	if _, err := os.Stat(chunk.Location); err != nil {
		return "", fmt.Errorf("chunk file missing: %w", err)
	}
	return chunk.Location, nil
}
