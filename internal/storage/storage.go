package storage

import (
	"context"
	"errors"
	"time"
)

// Package storage reaches the S3-compatible object store holding attachment
// content. The tip core never reads content; it only inspects objects,
// hands out download links and destroys objects whose rows were deleted.

var (
	// ErrObjectNotFound is returned when no object exists under a key.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrNotConfigured is returned by Noop for every operation that would
	// need a real backend.
	ErrNotConfigured = errors.New("storage: not configured")
)

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is the content store used by the file ledger and the secure
// delete drain. Implementations are safe for concurrent use.
type Storage interface {
	// Stat returns the object's info or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object. Removing a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Noop stands in when no object store is configured. Deletes fail so that
// pending secure-delete records are kept until a real store is available.
type Noop struct{}

var _ Storage = Noop{}

func (Noop) Stat(context.Context, string) (ObjectInfo, error) {
	return ObjectInfo{}, ErrNotConfigured
}

func (Noop) Delete(context.Context, string) error {
	return ErrNotConfigured
}

func (Noop) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}
