package clip

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testPattern = `gcam_(\d{2})(\d{2})(\d{4})_(\d{2})(\d{2})(\d{2})\.mp4`

func TestChunkPatternParseStart(t *testing.T) {
	pattern, err := NewChunkPattern(testPattern)
	if err != nil {
		t.Fatalf("Failed to compile pattern: %v", err)
	}

	start, ok := pattern.ParseStart("gcam_22122025_075030.mp4")
	if !ok {
		t.Fatal("Expected filename to match")
	}
	want := time.Date(2025, 12, 22, 7, 50, 30, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("Expected start %s, got %s", want, start)
	}

	// Non-matching names are skipped, never an error
	for _, name := range []string{
		"gcam_22122025_075030.mkv", // wrong extension
		"notes.txt",
		"gcam_2212225_075030.mp4", // short date field
		"other_22122025_075030.mp4",
		"gcam_22132025_075030.mp4", // month 13
	} {
		if _, ok := pattern.ParseStart(name); ok {
			t.Errorf("Expected %q not to match", name)
		}
	}
}

func TestNewChunkPatternRejectsWrongGroupCount(t *testing.T) {
	if _, err := NewChunkPattern(`gcam_(\d{8})_(\d{6})\.mp4`); err == nil {
		t.Error("Expected error for pattern with 2 capture groups")
	}
	if _, err := NewChunkPattern(`gcam_[`); err == nil {
		t.Error("Expected error for invalid regexp")
	}
}

func TestLocalCatalogListChunks(t *testing.T) {
	dir, err := os.MkdirTemp("", "clip-catalog-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	// Two valid chunks out of order plus files that must be skipped
	files := []string{
		"gcam_22122025_080000.mp4",
		"gcam_22122025_075500.mp4",
		"ignore_me.mp4",
		"gcam_22122025.mp4",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
	}

	pattern, err := NewChunkPattern(testPattern)
	if err != nil {
		t.Fatalf("Failed to compile pattern: %v", err)
	}
	catalog := NewLocalCatalog(dir, pattern, 300*time.Second)

	if err := catalog.CheckAccess(); err != nil {
		t.Fatalf("CheckAccess failed for existing directory: %v", err)
	}

	chunks, err := catalog.ListChunks()
	if err != nil {
		t.Fatalf("ListChunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Name != "gcam_22122025_075500.mp4" {
		t.Errorf("Expected oldest chunk first, got %s", chunks[0].Name)
	}
	for _, c := range chunks {
		if !c.End.Equal(c.Start.Add(300 * time.Second)) {
			t.Errorf("Chunk %s end is not start + chunk duration", c.Name)
		}
	}
}

func TestLocalCatalogEmptyDirectory(t *testing.T) {
	dir, err := os.MkdirTemp("", "clip-catalog-empty")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	pattern, _ := NewChunkPattern(testPattern)
	catalog := NewLocalCatalog(dir, pattern, 300*time.Second)

	chunks, err := catalog.ListChunks()
	if err != nil {
		t.Fatalf("Expected empty listing, not an error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected 0 chunks in empty directory, got %d", len(chunks))
	}
}

func TestLocalCatalogMissingDirectory(t *testing.T) {
	pattern, _ := NewChunkPattern(testPattern)
	catalog := NewLocalCatalog("/nonexistent/chunk/dir", pattern, 300*time.Second)

	if err := catalog.CheckAccess(); err == nil {
		t.Error("Expected CheckAccess to fail for missing directory")
	}
	if _, err := catalog.ListChunks(); err == nil {
		t.Error("Expected ListChunks to fail for missing directory")
	}
}

func TestLocalCatalogMaterializeReturnsOriginalPath(t *testing.T) {
	dir, err := os.MkdirTemp("", "clip-catalog-mat")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	chunkPath := filepath.Join(dir, "gcam_22122025_075500.mp4")
	if err := os.WriteFile(chunkPath, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	pattern, _ := NewChunkPattern(testPattern)
	catalog := NewLocalCatalog(dir, pattern, 300*time.Second)
	chunks, err := catalog.ListChunks()
	if err != nil || len(chunks) != 1 {
		t.Fatalf("Unexpected listing: %v (%d chunks)", err, len(chunks))
	}

	scratch := t.TempDir()
	local, err := catalog.Materialize(chunks[0], scratch)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if local != chunkPath {
		t.Errorf("Expected original path %s, got %s", chunkPath, local)
	}

	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("Local materialize must not copy into scratch, found %d files", len(entries))
	}
}

// fakeStore implements ObjectStore over an in-memory key list.
type fakeStore struct {
	keys       []string
	listErr    error
	accessErr  error
	downloaded []string
}

func (f *fakeStore) CheckAccess() error { return f.accessErr }

func (f *fakeStore) ListObjectKeys(prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.keys, nil
}

func (f *fakeStore) DownloadFile(key, localPath string) error {
	f.downloaded = append(f.downloaded, key)
	return os.WriteFile(localPath, []byte("video"), 0644)
}

func TestS3CatalogListChunks(t *testing.T) {
	store := &fakeStore{keys: []string{
		"recordings/gcam_22122025_080000.mp4",
		"recordings/gcam_22122025_075500.mp4",
		"recordings/manifest.json",
	}}

	pattern, _ := NewChunkPattern(testPattern)
	catalog := NewS3Catalog(store, "recordings", pattern, 300*time.Second)

	chunks, err := catalog.ListChunks()
	if err != nil {
		t.Fatalf("ListChunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Name != "gcam_22122025_075500.mp4" {
		t.Errorf("Expected chunks sorted by start time, got %s first", chunks[0].Name)
	}
	if chunks[0].Location != "recordings/gcam_22122025_075500.mp4" {
		t.Errorf("Expected full key as location, got %s", chunks[0].Location)
	}
}

func TestS3CatalogMaterializeDownloads(t *testing.T) {
	store := &fakeStore{keys: []string{"recordings/gcam_22122025_075500.mp4"}}
	pattern, _ := NewChunkPattern(testPattern)
	catalog := NewS3Catalog(store, "recordings/", pattern, 300*time.Second)

	chunks, err := catalog.ListChunks()
	if err != nil || len(chunks) != 1 {
		t.Fatalf("Unexpected listing: %v (%d chunks)", err, len(chunks))
	}

	scratch := t.TempDir()
	local, err := catalog.Materialize(chunks[0], scratch)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if filepath.Dir(local) != scratch {
		t.Errorf("Expected download into scratch directory, got %s", local)
	}
	if len(store.downloaded) != 1 || store.downloaded[0] != chunks[0].Location {
		t.Errorf("Expected one download of %s, got %v", chunks[0].Location, store.downloaded)
	}
}
