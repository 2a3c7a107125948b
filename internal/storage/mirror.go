package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

// S3Mirror copies committed blobs to an S3-compatible bucket.
type S3Mirror struct {
	api    *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Mirror connects to the endpoint and makes sure the bucket exists.
func NewS3Mirror(ctx context.Context, cfg common.MirrorConfig, logger *slog.Logger) (*S3Mirror, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	exists, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 bucket check: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("s3 make bucket: %w", err)
		}
		logger.Info("store.mirror.bucket_created", "bucket", cfg.Bucket)
	}

	return &S3Mirror{
		api:    api,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// ObjectKey maps a store-relative path to the mirrored object name.
func (m *S3Mirror) ObjectKey(rel string) string {
	if m.prefix == "" {
		return rel
	}
	return path.Join(m.prefix, rel)
}

func (m *S3Mirror) Put(ctx context.Context, rel, localPath string, size int64) error {
	key := m.ObjectKey(rel)
	info, err := m.api.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: constants.MimeType(localPath),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	m.logger.Debug("store.mirror.put", "bucket", m.bucket, "key", key, "size", size, "etag", info.ETag)
	return nil
}
