package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps objects under a local directory, for the single-client
// local backend. Objects are served by the HTTP adapter under baseURL.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bucketDir := filepath.Join(s.root, bucket)
	if !below(s.root, bucketDir) {
		return fmt.Errorf("bucket %q escapes storage root", bucket)
	}
	target := filepath.Join(bucketDir, filepath.FromSlash(path))
	if !below(bucketDir, target) {
		return fmt.Errorf("path %q escapes bucket %q", path, bucket)
	}
	if !opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("object %s/%s already exists", bucket, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// below reports whether target lies strictly inside dir.
func below(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *DiskStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, bucket, escapePath(path))
}
