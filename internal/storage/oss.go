package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	// PublicBaseURL overrides the virtual-hosted bucket URL, e.g. a CDN domain.
	PublicBaseURL string
}

// OSSStore writes objects to Alibaba Cloud OSS buckets.
type OSSStore struct {
	client     *oss.Client
	host       string
	publicBase string
}

func NewOSSStore(cfg *OSSConfig) (*OSSStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, errors.New("oss: endpoint and access keys are required")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	return &OSSStore{
		client:     client,
		host:       strings.TrimRight(host, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *OSSStore) Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error {
	bkt, err := s.client.Bucket(bucket)
	if err != nil {
		return fmt.Errorf("client.Bucket: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	options := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ForbidOverWrite(!opts.Overwrite),
	}

	if err := bkt.PutObject(path, bytes.NewReader(data), options...); err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) {
			return &StoreError{StatusCode: se.StatusCode, Message: se.Message}
		}
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *OSSStore) PublicURL(bucket, path string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + escapePath(path)
	}
	return "https://" + bucket + "." + s.host + "/" + escapePath(path)
}
