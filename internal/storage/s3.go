package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"ultra-eval/internal/config"
)

// S3Storage stores report attachments in an S3-compatible bucket
// (AWS S3, MinIO, or a Supabase storage gateway).
type S3Storage struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

// NewS3Storage creates a new attachment store
func NewS3Storage(cfg *config.StorageConfig) (*S3Storage, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Region:           aws.String(cfg.Region),
		DisableSSL:       aws.Bool(!cfg.UseSSL),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		s3Config.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &S3Storage{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores an attachment under a fresh object key and returns the public
// URL the report will reference. Keys are date-partitioned so the bucket stays
// browsable.
func (s *S3Storage) Upload(ctx context.Context, filename, contentType string, data io.ReadSeeker) (string, error) {
	key := fmt.Sprintf("reports/%s/%s%s",
		time.Now().UTC().Format("2006-01-02"),
		uuid.NewString(),
		sanitizeExt(filename),
	)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return s.URLFor(key), nil
}

// Delete removes an attachment by object key
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// URLFor returns the public URL for an object key
func (s *S3Storage) URLFor(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// sanitizeExt keeps only a plain file extension from the uploaded name so
// object keys never embed client-controlled paths.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
