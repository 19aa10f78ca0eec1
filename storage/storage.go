package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-booking/config"
)

var (
	ErrInvalidKey       = errors.New("invalid object key")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrTooLarge         = errors.New("file too large")
)

var keyPattern = regexp.MustCompile(`^[a-f0-9-]{36}\.(jpg|png|gif|webp)$`)

// allowedImages maps accepted content types to the extension stored.
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Storage stores uploaded menu images.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL returns the key of an object this storage produced, or ""
	// when url points elsewhere.
	KeyFromURL(url string) string
}

// Image is a sniffed upload ready to be stored.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// PrepareImage reads at most maxSize bytes from r, sniffs the content and
// assigns a random key. The client-supplied name and type are ignored.
func PrepareImage(r io.Reader, maxSize int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	for ct, ext := range allowedImages {
		if mtype.Is(ct) {
			return &Image{Key: uuid.NewString() + ext, ContentType: ct, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
}

// Save stores img and returns its public URL.
func Save(ctx context.Context, s Storage, img *Image) (string, error) {
	return s.Put(ctx, img.Key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data)))
}

// ValidKey reports whether key looks like one PrepareImage produced.
func ValidKey(key string) bool {
	return key == path.Base(key) && keyPattern.MatchString(key)
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.Dir, cfg.BaseURL)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported upload backend %q", cfg.Backend)
	}
}
