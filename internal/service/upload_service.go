package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"

	"go-catalog-admin/internal/metrics"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotImage  = errors.New("file is not an image")
)

// Upload stages reported by UploadError.
const (
	StageUpload    = "upload"
	StagePublicURL = "public_url"
)

// UploadError means the file was accepted but storing it or resolving its
// public URL failed.
type UploadError struct {
	Stage string
	Key   string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image %s failed for %s: %v", e.Stage, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type UploadService interface {
	Upload(ctx context.Context, filename string, data []byte, lastModified int64) (*model.Image, error)
}

type uploadService struct {
	storage storage.Client
	bucket  string
	logger  *zap.Logger
}

func NewUploadService(store storage.Client, bucket string, logger *zap.Logger) UploadService {
	return &uploadService{storage: store, bucket: bucket, logger: logger.Named("upload")}
}

// Upload stores one product image and returns it with its public URL. The
// object key is prefixed with a uuid so equal file names never overwrite each
// other.
func (s *uploadService) Upload(ctx context.Context, filename string, data []byte, lastModified int64) (*model.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		metrics.RecordUpload("rejected")
		return nil, ErrNotImage
	}

	key := uuid.NewString() + "-" + sanitizeFilename(filename, mtype.Extension())
	contentType := mtype.String()

	if err := s.storage.Upload(ctx, s.bucket, key, data, contentType); err != nil {
		s.logger.Warn("Image upload failed", zap.String("key", key), zap.Error(err))
		metrics.RecordUpload("failed")
		return nil, &UploadError{Stage: StageUpload, Key: key, Err: err}
	}

	url, err := s.storage.PublicURL(s.bucket, key)
	if err != nil {
		s.logger.Warn("Public URL lookup failed", zap.String("key", key), zap.Error(err))
		metrics.RecordUpload("failed")
		return nil, &UploadError{Stage: StagePublicURL, Key: key, Err: err}
	}

	metrics.RecordUpload("stored")
	return &model.Image{
		Name:         key,
		Size:         int64(len(data)),
		Type:         contentType,
		LastModified: lastModified,
		URL:          url,
	}, nil
}

// sanitizeFilename keeps letters, digits, dot, dash and underscore.
func sanitizeFilename(name, ext string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '-'
	}, base)
	clean = strings.Trim(clean, ".-")
	if clean == "" {
		clean = "image" + ext
	}
	if len(clean) > 128 {
		clean = clean[len(clean)-128:]
	}
	return clean
}
