package mediastore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/services"
)

// MinIO keeps media files in an S3-compatible bucket and hands out presigned
// download URLs.
type MinIO struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *slog.Logger
}

// NewMinIO connects to the configured endpoint and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg config.MinIO, expiry time.Duration, logger *slog.Logger) (*MinIO, error) {
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mediastore", "init", "create minio client", err)
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	store := &MinIO{
		client: client,
		bucket: cfg.Bucket,
		expiry: expiry,
		logger: logging.NewComponentLogger(logger, "mediastore"),
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "mediastore", "bucket", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return services.Wrap(services.ErrRemoteTransport, "mediastore", "bucket", "create "+m.bucket, err)
	}
	m.logger.Info("created media bucket",
		logging.String("bucket", m.bucket),
		logging.String(logging.FieldEventType, "bucket_created"),
	)
	return nil
}

// Fetch implements Store.
func (m *MinIO) Fetch(ctx context.Context, key, dst string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := m.client.FGetObject(ctx, m.bucket, cleaned, dst, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return services.Wrap(services.ErrNotFound, "mediastore", "fetch", cleaned, err)
		}
		return services.Wrap(services.ErrRemoteTransport, "mediastore", "fetch", cleaned, err)
	}
	return nil
}

// Put implements Store.
func (m *MinIO) Put(ctx context.Context, key, src string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	info, err := m.client.FPutObject(ctx, m.bucket, cleaned, src, minio.PutObjectOptions{
		ContentType: ContentType(cleaned),
	})
	if err != nil {
		return services.Wrap(services.ErrRemoteTransport, "mediastore", "put", cleaned, err)
	}
	m.logger.Debug("stored media object",
		logging.String("key", cleaned),
		logging.Int64("size", info.Size),
	)
	return nil
}

// URL implements Store with a presigned GET URL.
func (m *MinIO) URL(ctx context.Context, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, cleaned, m.expiry, params)
	if err != nil {
		return "", services.Wrap(services.ErrRemoteTransport, "mediastore", "url", cleaned, err)
	}
	return u.String(), nil
}

// Exists implements Store.
func (m *MinIO) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	if _, err := m.client.StatObject(ctx, m.bucket, cleaned, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, services.Wrap(services.ErrRemoteTransport, "mediastore", "stat", cleaned, err)
	}
	return true, nil
}

func (m *MinIO) String() string {
	return fmt.Sprintf("minio://%s", m.bucket)
}
