// Package types defines the object storage contract used for asset uploads.
package types

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when an object is not in storage.
var ErrObjectNotFound = errors.New("object not found")

// ObjectMetadata describes an object being stored.
type ObjectMetadata struct {
	ContentType   string
	ContentLength int64
	CacheControl  string
	UserMetadata  map[string]string
}

// ObjectStorage is a bucket-oriented blob store.
type ObjectStorage interface {
	// Put stores the content of reader under key. An empty bucket means
	// the configured default bucket.
	Put(ctx context.Context, bucket, key string, reader io.Reader, metadata ObjectMetadata) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// ObjectURL returns the URL an object is reachable at.
	ObjectURL(bucket, key string) string

	// Bucket returns the default bucket.
	Bucket() string
}
