// internal/storage/storage.go

// Package storage keeps uploaded objects such as book covers and hands out
// their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const CoversBucket = "book-covers"

var ErrInvalidPath = errors.New("invalid object path")

// Store is the object storage boundary.
type Store interface {
	Upload(ctx context.Context, bucket, objectPath string, body io.Reader) (string, error)
	PublicURL(bucket, objectPath string) string
}

// DiskStore writes objects under root/<bucket>/<path> and serves them from
// baseURL/storage/<bucket>/<path>.
type DiskStore struct {
	root    string
	baseURL string
	log     *zap.SugaredLogger
}

func NewDiskStore(root, baseURL string, log *zap.SugaredLogger) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Upload writes body to bucket/objectPath and returns objectPath.
func (s *DiskStore) Upload(ctx context.Context, bucket, objectPath string, body io.Reader) (string, error) {
	full, err := s.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext(ctx, body)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}

	s.log.Infow("Object uploaded", "bucket", bucket, "path", objectPath)
	return objectPath, nil
}

func (s *DiskStore) PublicURL(bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/storage/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Handler serves stored objects under the /storage/ prefix.
func (s *DiskStore) Handler() http.Handler {
	return http.StripPrefix("/storage/", http.FileServer(http.Dir(s.root)))
}

func (s *DiskStore) resolve(bucket, objectPath string) (string, error) {
	if bucket == "" || objectPath == "" || strings.Contains(bucket, "/") {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
