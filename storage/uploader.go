package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/storage/types"
)

// Uploader puts local media files in object storage and registers the
// resulting URL with Lytix.
type Uploader struct {
	storage   types.ObjectStorage
	collector *collector.Client
	logger    observability.Logger
}

// NewUploader returns an uploader writing to the default bucket of s.
func NewUploader(s types.ObjectStorage, c *collector.Client, logger observability.Logger) *Uploader {
	return &Uploader{storage: s, collector: c, logger: logger}
}

// UploadFileAndCapture stores the file at path under "<uuid>-<basename>" and
// returns the asset id Lytix assigned to its URL. When mimeType is empty it
// is guessed from the extension.
//
// Any failure is logged and returned with an empty id.
func (u *Uploader) UploadFileAndCapture(ctx context.Context, path, mimeType string) (string, error) {
	id, err := u.upload(ctx, path, mimeType)
	if err != nil {
		u.logger.Error(ctx, "Failed to upload file and capture URL in Lytix", err, observability.Fields{
			"path": path,
		})
		return "", err
	}
	return id, nil
}

func (u *Uploader) upload(ctx context.Context, path, mimeType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}

	bucket := u.storage.Bucket()
	if err := u.storage.EnsureBucket(ctx, bucket); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(path))
	err = u.storage.Put(ctx, bucket, key, f, types.ObjectMetadata{
		ContentType:   mimeType,
		ContentLength: info.Size(),
	})
	if err != nil {
		return "", err
	}

	return u.collector.CaptureVideoURL(ctx, u.storage.ObjectURL(bucket, key), mimeType)
}
