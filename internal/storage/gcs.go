package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads to a Google Cloud Storage bucket with public read access.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a client from credsPath, or from application default
// credentials when it is empty.
func NewGCSStore(ctx context.Context, credsPath, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs storage requires a bucket")
	}

	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put implements ImageStore.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return GCSPublicURL(s.bucket, key), nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// GCSPublicURL is the public address of an object.
func GCSPublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
