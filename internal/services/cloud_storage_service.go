package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when a mirrored object is missing from the bucket.
var ErrObjectNotFound = errors.New("object not found")

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIOService mirrors uploaded PDFs to an S3-compatible bucket.
type MinIOService struct {
	client *minio.Client
	bucket string
}

// NewMinIOService creates the client and makes sure the bucket exists.
func NewMinIOService(ctx context.Context, cfg MinIOConfig) (*MinIOService, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &MinIOService{client: mc, bucket: cfg.Bucket}, nil
}

func (s *MinIOService) UploadFile(ctx context.Context, objectName string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, content, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// PresignedURL signs a GET for objectName. A missing object is ErrObjectNotFound.
func (s *MinIOService) PresignedURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrObjectNotFound
		}
		return "", fmt.Errorf("stat object: %w", err)
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", "application/pdf")
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
