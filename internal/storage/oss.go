package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore is a BlobStore backed by an Alibaba Cloud OSS bucket.
type OSSStore struct {
	bucket *oss.Bucket
}

// NewOSSStore connects to the endpoint with the given credentials and
// binds the named bucket.
func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}
	return &OSSStore{bucket: bucket}, nil
}

// Upload stores data under key path in the bucket.
func (s *OSSStore) Upload(_ context.Context, path string, data []byte) error {
	if err := s.bucket.PutObject(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("oss put %s: %w", path, err)
	}
	return nil
}

// Download fetches the object at path.
func (s *OSSStore) Download(_ context.Context, path string) ([]byte, error) {
	body, err := s.bucket.GetObject(path)
	if err != nil {
		return nil, fmt.Errorf("oss get %s: %w", path, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("oss read %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the object at path.
func (s *OSSStore) Delete(_ context.Context, path string) error {
	if err := s.bucket.DeleteObject(path); err != nil {
		return fmt.Errorf("oss delete %s: %w", path, err)
	}
	return nil
}
