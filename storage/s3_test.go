package storage

import "testing"

func TestContentTypeForFile(t *testing.T) {
	cases := map[string]string{
		"/clips/alert_clip_20251222_075030.mp4": "video/mp4",
		"/clips/thumb_20251222_075030.jpg":      "image/jpeg",
		"/clips/thumb.JPEG":                     "image/jpeg",
		"/clips/preview.png":                    "image/png",
		"/clips/concat.txt":                     "text/plain",
		"/clips/unknown.bin":                    "application/octet-stream",
	}
	for path, want := range cases {
		if got := ContentTypeForFile(path); got != want {
			t.Errorf("ContentTypeForFile(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestGetBaseURL(t *testing.T) {
	s := &S3Storage{config: S3Config{Bucket: "alert-clips", Region: "eu-central-1"}}
	want := "https://alert-clips.s3.eu-central-1.amazonaws.com"
	if got := s.GetBaseURL(); got != want {
		t.Errorf("GetBaseURL() = %q, want %q", got, want)
	}

	s = &S3Storage{config: S3Config{Bucket: "alert-clips", Region: "eu-central-1", BaseURL: "https://media.example.com/"}}
	if got := s.GetBaseURL(); got != "https://media.example.com" {
		t.Errorf("GetBaseURL() with override = %q", got)
	}
}
