package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	// Best effort: fails under uniform bucket-level access, where the
	// bucket policy controls visibility instead.
	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		if !strings.Contains(err.Error(), "uniform bucket-level access") {
			return "", err
		}
	}

	return s.PublicURL(objectName), nil
}

func (s *GCSStore) Download(ctx context.Context, objectName string, destPath string) error {
	r, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open %q: %w", objectName, err)
	}
	defer r.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *GCSStore) NewRangeReader(ctx context.Context, objectName string, offset, length int64) (io.ReadCloser, error) {
	return s.client.Bucket(s.bucket).Object(objectName).NewRangeReader(ctx, offset, length)
}

func (s *GCSStore) Attrs(ctx context.Context, objectName string) (int64, string, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(objectName).Attrs(ctx)
	if err != nil {
		return 0, "", err
	}
	return attrs.Size, attrs.ContentType, nil
}

func (s *GCSStore) SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return s.client.Bucket(s.bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (s *GCSStore) Delete(ctx context.Context, objectName string) error {
	return s.client.Bucket(s.bucket).Object(objectName).Delete(ctx)
}

func (s *GCSStore) PublicURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName)
}

// ObjectNameFromURL resolves a stored video URL (public or signed) back to
// the object key inside the bucket. Returns "" when the URL does not point
// into GCS.
func ObjectNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host != "storage.googleapis.com" {
		return ""
	}
	// Path is /<bucket>/<object...>
	p := strings.TrimPrefix(u.Path, "/")
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[i+1:]
	}
	return ""
}
