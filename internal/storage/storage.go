package storage

import (
	"context"
	"io"
	"time"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (publicURL string, err error)
}

type Downloader interface {
	Download(ctx context.Context, objectName string, destPath string) error
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// RangeReader serves byte ranges for the streaming video proxy.
// length < 0 reads to the end of the object.
type RangeReader interface {
	NewRangeReader(ctx context.Context, objectName string, offset, length int64) (io.ReadCloser, error)
	Attrs(ctx context.Context, objectName string) (size int64, contentType string, err error)
}

// Remover deletes a stored object. Used to reap recordings replaced by
// a re-submission.
type Remover interface {
	Delete(ctx context.Context, objectName string) error
}
