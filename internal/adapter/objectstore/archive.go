// Package objectstore archives captured imagery snapshots in S3-compatible
// object storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/risk-zone-service/internal/config"
	"github.com/couchcryptid/risk-zone-service/internal/domain"
)

// objectStore is the subset of *minio.Client used by the archive.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// SnapshotArchive stores zone snapshots under zones/{id}/.
// It implements analysis.SnapshotArchiver.
type SnapshotArchive struct {
	store  objectStore
	bucket string
	logger *slog.Logger
}

// NewSnapshotArchive connects to MinIO and makes sure the bucket exists.
func NewSnapshotArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*SnapshotArchive, error) {
	endpoint := strings.TrimPrefix(cfg.MinioEndpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	a := &SnapshotArchive{store: client, bucket: cfg.MinioBucket, logger: logger}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *SnapshotArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("created snapshot bucket", "bucket", a.bucket)
	return nil
}

// PutSnapshot uploads an image and returns its "bucket/key" reference.
func (a *SnapshotArchive) PutSnapshot(ctx context.Context, zoneID int, img domain.Image) (string, error) {
	key := ObjectKey(zoneID, domain.Now(), img.ContentType)
	_, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.ContentType,
		UserMetadata: map[string]string{
			"zone-id": fmt.Sprint(zoneID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return a.bucket + "/" + key, nil
}

// ObjectKey builds the storage key for a zone snapshot taken at t.
func ObjectKey(zoneID int, t time.Time, contentType string) string {
	return fmt.Sprintf("zones/%d/%s%s", zoneID, t.UTC().Format("20060102T150405.000Z"), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
