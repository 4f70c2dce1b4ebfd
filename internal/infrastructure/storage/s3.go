package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"event-ticketing/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Backend stores objects in a bucket of any S3-compatible service.
type S3Backend struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

func NewS3Backend(cfg config.StorageConfig) (*S3Backend, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &S3Backend{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (b *S3Backend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", b.bucket, err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", b.bucket, err)
		}
	}
	return nil
}

func (b *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (StoredFile, error) {
	info, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredFile{}, fmt.Errorf("put object: %w", err)
	}

	return StoredFile{
		Key:         key,
		Location:    b.publicURL + "/" + key,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (b *S3Backend) KeyFromURL(url string) (string, bool) {
	prefix := b.publicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
