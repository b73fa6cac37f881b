package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/metrics"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-menu-service/internal/storage")

// Uploader sanitizes paths, optionally downsizes images and writes them to
// an ObjectStore with overwrite semantics. It never caches or retries.
type Uploader struct {
	store         ObjectStore
	maxImageWidth int
	logger        logger.ZapLogger
}

func NewUploader(store ObjectStore, maxImageWidth int, log logger.ZapLogger) *Uploader {
	return &Uploader{
		store:         store,
		maxImageWidth: maxImageWidth,
		logger:        log,
	}
}

// Upload stores file under the sanitized logicalPath in bucket and returns
// its public URL. Failures come back as *apperr.UploadError.
func (u *Uploader) Upload(ctx context.Context, file File, logicalPath, bucket string) (string, error) {
	path := SanitizePath(logicalPath)
	ctx, span := tracer.Start(ctx, "storage.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("path", path))

	if strings.Trim(path, "/ ") == "" {
		err := &apperr.UploadError{Path: logicalPath, Detail: "empty storage path", Err: apperr.ErrInvalidInput}
		metrics.UploadTotal.WithLabelValues(metrics.Result(err)).Inc()
		return "", err
	}

	data := u.downscale(file, path)
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	err := u.store.Upload(ctx, bucket, path, data, UploadOptions{ContentType: contentType, Overwrite: true})
	metrics.UploadTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		u.logger.Error("asset upload failed",
			zap.String("bucket", bucket),
			zap.String("path", path),
			zap.Error(err),
		)
		upErr := &apperr.UploadError{Path: path, Err: err}
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			upErr.Detail = storeErr.Message
		}
		return "", upErr
	}
	metrics.UploadBytes.Observe(float64(len(data)))

	return u.store.PublicURL(bucket, path), nil
}

// downscale shrinks raster images wider than maxImageWidth, keeping the
// format implied by path. Anything it cannot decode is uploaded as is.
func (u *Uploader) downscale(file File, path string) []byte {
	if u.maxImageWidth <= 0 {
		return file.Data
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return file.Data
	}
	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		u.logger.Debug("asset is not a decodable image, uploading original", zap.String("path", path), zap.Error(err))
		return file.Data
	}
	if img.Bounds().Dx() <= u.maxImageWidth {
		return file.Data
	}

	resized := imaging.Resize(img, u.maxImageWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, resized, format); err != nil {
		u.logger.Warn("failed to re-encode downscaled image, uploading original", zap.String("path", path), zap.Error(err))
		return file.Data
	}
	return buf.Bytes()
}
