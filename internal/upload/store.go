// Package upload stores featured images in an S3-compatible object store
// and hands back public URLs.
//
// The article core treats this as an opaque URL-returning service: whatever
// URL UniqueUpload returns is what lands in the article's featuredImage
// field. MinIO is the deployment target, but any S3-compatible endpoint
// works through the same client.
package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"
)

// Store wraps a MinIO client pointed at a single public bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string // base URL clients can GET objects from, no trailing slash
}

// New creates a Store and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("upload: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("upload: make bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// UniqueUpload stores the bytes under a fresh unique key and returns the
// public URL. Keys are xids, so two uploads can never collide and the key
// sorts by upload time — handy when browsing the bucket.
func (s *Store) UniqueUpload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := xid.New().String()

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload: putting object %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

// Remove deletes an object by the key embedded in its public URL suffix.
// Exposed as DELETE /api/uploads/{key} so authors can discard an image
// they uploaded but never attached to an article.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
