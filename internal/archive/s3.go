// Package archive keeps copies of generated marker exports in S3-compatible
// object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// ObjectClient is the subset of the MinIO client used by the archiver.
// *minio.Client implements it.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config holds the connection settings of the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// S3Archiver writes export files into one bucket.
type S3Archiver struct {
	client ObjectClient
	bucket string
	region string
}

// NewS3Archiver connects to the configured endpoint.
func NewS3Archiver(cfg Config) (*S3Archiver, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("archive: endpoint, access key, secret key and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return NewWithClient(client, cfg.Bucket, cfg.Region), nil
}

// NewWithClient creates an archiver over an existing client.
func NewWithClient(client ObjectClient, bucket, region string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, region: region}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *S3Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
		// Another instance may have created it in the meantime.
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	logging.FromContext(ctx).Info("created archive bucket", "bucket", a.bucket)
	return nil
}

// Archive stores body under key. Existing objects are overwritten.
func (a *S3Archiver) Archive(ctx context.Context, key, contentType string, body []byte) error {
	objectKey := SanitizeKey(key)
	if objectKey == "" {
		return errors.New("archive: empty object key")
	}

	_, err := a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("store %s in bucket %s: %w", objectKey, a.bucket, err)
	}

	logging.FromContext(ctx).Debug("archived export", "bucket", a.bucket, "key", objectKey, "bytes", len(body))
	return nil
}

// SanitizeKey lowercases key, replaces spaces with hyphens and drops empty,
// "." and ".." path segments.
func SanitizeKey(key string) string {
	key = strings.ToLower(strings.ReplaceAll(key, " ", "-"))
	parts := strings.Split(key, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}
