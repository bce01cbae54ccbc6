package signer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sabnocksid/lms-backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Compile-time interface check.
var _ Signer = (*MinioSigner)(nil)

// MinioSigner signs GET URLs for a single bucket. Credentials are fixed
// at construction; nothing here reads the environment after startup.
type MinioSigner struct {
	client *minio.Client
	bucket string
}

// NewMinioSigner builds a signer from the object-store settings in cfg.
func NewMinioSigner(cfg *config.Config) (*MinioSigner, error) {
	client, err := minio.New(cfg.ObjectStoreEndpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			cfg.ObjectStoreAccessKey,
			cfg.ObjectStoreSecretKey,
			"",
		),
		Secure: cfg.ObjectStoreUseSSL,
		Region: cfg.ObjectStoreRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &MinioSigner{client: client, bucket: cfg.ObjectStoreBucket}, nil
}

// Presign returns a time-limited GET URL for objectKey.
func (s *MinioSigner) Presign(
	ctx context.Context,
	objectKey string,
	expiry time.Duration,
) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %q: %w", objectKey, err)
	}
	return u.String(), nil
}
