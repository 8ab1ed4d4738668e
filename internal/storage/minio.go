package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/barsham/design-automation/internal/domain"
)

// MinioConfig encapsulates the connection info for an S3-compatible store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLExpiry time.Duration
}

const defaultURLExpiry = time.Hour

// MinioGateway implements Gateway against MinIO / S3-compatible services.
//
// Object stores have no native rename, so Rename is a server-side copy
// followed by a delete of the source.
type MinioGateway struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioGateway builds a gateway bound to one bucket.
func NewMinioGateway(cfg MinioConfig) (*MinioGateway, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init failed: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}

	return &MinioGateway{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: expiry,
	}, nil
}

// SignedURL issues time-limited capability URLs for one object. Presigned
// URLs are method-scoped, so read-write access yields a GET/PUT pair.
func (g *MinioGateway) SignedURL(ctx context.Context, object string, mode domain.AccessMode) (domain.SignedURL, error) {
	var signed domain.SignedURL

	if mode == domain.AccessRead || mode == domain.AccessReadWrite {
		u, err := g.client.PresignedGetObject(ctx, g.bucket, object, g.urlExpiry, nil)
		if err != nil {
			return domain.SignedURL{}, fmt.Errorf("presign get %s: %w", object, err)
		}
		signed.Get = u.String()
	}

	if mode == domain.AccessWrite || mode == domain.AccessReadWrite {
		u, err := g.client.PresignedPutObject(ctx, g.bucket, object, g.urlExpiry)
		if err != nil {
			return domain.SignedURL{}, fmt.Errorf("presign put %s: %w", object, err)
		}
		signed.Put = u.String()
	}

	return signed, nil
}

func (g *MinioGateway) Upload(ctx context.Context, object string, data []byte) error {
	_, err := g.client.PutObject(ctx, g.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	return nil
}

func (g *MinioGateway) Download(ctx context.Context, object string) ([]byte, error) {
	obj, err := g.client.GetObject(ctx, g.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", object, err)
	}
	return data, nil
}

func (g *MinioGateway) Rename(ctx context.Context, from, to string) error {
	src := minio.CopySrcOptions{Bucket: g.bucket, Object: from}
	dst := minio.CopyDestOptions{Bucket: g.bucket, Object: to}

	if _, err := g.client.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("copy %s to %s: %w", from, to, err)
	}
	if err := g.client.RemoveObject(ctx, g.bucket, from, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s after copy: %w", from, err)
	}
	return nil
}

func (g *MinioGateway) Delete(ctx context.Context, object string) error {
	if err := g.client.RemoveObject(ctx, g.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

var _ Gateway = (*MinioGateway)(nil)
