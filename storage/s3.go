package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config holds configuration for the S3 bucket that stores camera chunks
// and receives finished clips.
type S3Config struct {
	AccessKey string // empty falls back to the SDK default credential chain
	SecretKey string
	Region    string
	Bucket    string
	BaseURL   string // public URL override; empty derives the standard S3 URL
}

// Number of attempts for the UploadFile retry loop
const maxUploadAttempts = 3

// S3Storage handles operations against the alert video bucket.
type S3Storage struct {
	config     S3Config
	session    *session.Session
	client     *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

// NewS3Storage creates a new S3Storage instance.
func NewS3Storage(config S3Config) (*S3Storage, error) {
	awsConfig := &aws.Config{
		Region:     aws.String(config.Region),
		MaxRetries: aws.Int(3),
	}
	if config.AccessKey != "" && config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	client := s3.New(sess)

	// Single-connection transfers: the edge boxes this runs on have limited
	// uplink, so sequential parts are kinder than the SDK defaults.
	uploader := s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10 MB
		u.Concurrency = 1
	})
	downloader := s3manager.NewDownloader(sess, func(d *s3manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024
		d.Concurrency = 1
	})

	return &S3Storage{
		config:     config,
		session:    sess,
		client:     client,
		uploader:   uploader,
		downloader: downloader,
	}, nil
}

// CheckAccess verifies the bucket is reachable with the configured
// credentials. Called before any extraction touches the filesystem so bad
// credentials fail fast.
func (s *S3Storage) CheckAccess() error {
	_, err := s.client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %v", s.config.Bucket, err)
	}
	return nil
}

// ListObjectKeys lists every object key under the given prefix, following
// pagination until the listing is exhausted.
func (s *S3Storage) ListObjectKeys(prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	}

	err := s.client.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects with prefix %s: %v", prefix, err)
	}

	return keys, nil
}

// DownloadFile downloads an object to a local path.
func (s *S3Storage) DownloadFile(key, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %v", localPath, err)
	}
	defer f.Close()

	n, err := s.downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(localPath)
		return fmt.Errorf("failed to download %s: %v", key, err)
	}

	log.Printf("S3: downloaded %s (%.2f MB)", key, float64(n)/1024/1024)
	return nil
}

// UploadFile uploads a local file and returns its public URL. Transient
// failures are retried with exponential backoff.
func (s *S3Storage) UploadFile(localPath, remotePath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %v", localPath, err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %v", err)
	}

	contentType := ContentTypeForFile(localPath)
	metadata := map[string]*string{
		"OriginalFileName": aws.String(filepath.Base(localPath)),
		"UploadedAt":       aws.String(time.Now().Format(time.RFC3339)),
		"FileSize":         aws.String(fmt.Sprintf("%d", fileInfo.Size())),
	}

	log.Printf("S3: uploading %s (%.2f MB) to %s",
		localPath, float64(fileInfo.Size())/1024/1024, remotePath)

	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		if _, err := file.Seek(0, 0); err != nil {
			return "", fmt.Errorf("failed to seek to beginning of file: %v", err)
		}

		_, lastErr = s.uploader.Upload(&s3manager.UploadInput{
			Bucket:      aws.String(s.config.Bucket),
			Key:         aws.String(remotePath),
			Body:        file,
			ContentType: aws.String(contentType),
			Metadata:    metadata,
		})
		if lastErr == nil {
			break
		}

		log.Printf("S3: upload attempt %d/%d failed for %s: %v", attempt, maxUploadAttempts, localPath, lastErr)
		time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
	}
	if lastErr != nil {
		return "", fmt.Errorf("failed to upload file after %d attempts: %v", maxUploadAttempts, lastErr)
	}

	publicURL := fmt.Sprintf("%s/%s", s.GetBaseURL(), remotePath)
	log.Printf("S3: file uploaded, public URL: %s", publicURL)
	return publicURL, nil
}

// DeleteObject deletes an object from the bucket.
func (s *S3Storage) DeleteObject(key string) error {
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %v", key, err)
	}
	return nil
}

// GetBaseURL returns the public base URL for uploaded artifacts.
func (s *S3Storage) GetBaseURL() string {
	if s.config.BaseURL != "" {
		return strings.TrimSuffix(s.config.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.config.Bucket, s.config.Region)
}

// ContentTypeForFile maps a filename extension to the Content-Type set on
// uploads.
func ContentTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
