// Package storage is the asset upload adapter: it turns a file and a
// logical path into a durable, publicly resolvable URL.
package storage

import (
	"context"
	"path/filepath"
	"strings"
)

// File is an uploaded binary as received from the presentation layer.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the lowercased extension of the file name, including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

type UploadOptions struct {
	ContentType string
	Overwrite   bool
}

// ObjectStore is the remote bucket/path object store.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error
	PublicURL(bucket, path string) string
}

// AssetUploader is what the stores depend on; *Uploader implements it.
type AssetUploader interface {
	Upload(ctx context.Context, file File, logicalPath, bucket string) (string, error)
}
