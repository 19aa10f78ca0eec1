package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local writes images below a directory served by the HTTP server.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	dst := filepath.Join(l.dir, key)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return l.baseURL + "/" + key, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return os.Remove(filepath.Join(l.dir, key))
}

func (l *Local) KeyFromURL(url string) string {
	prefix := l.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	key := strings.TrimPrefix(url, prefix)
	if !ValidKey(key) {
		return ""
	}
	return key
}
