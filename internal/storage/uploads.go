package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

var (
	ErrUnsupportedType = errors.New("only jpeg, png and gif images are allowed")
	ErrTooLarge        = errors.New("image exceeds the size limit")
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Store writes listing images to a local directory under generated names.
type Store struct {
	dir      string
	maxBytes int64
}

func New(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Validate checks extension, declared content type and size without writing anything.
func (s *Store) Validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return ErrUnsupportedType
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, want) {
		return ErrUnsupportedType
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save stores the file and returns its public URL, e.g. /uploads/<uuid>.png.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, s.limit()+1))
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.limit() {
		dst.Close()
		os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes a previously saved file by its public URL. Unknown URLs are ignored.
func (s *Store) Remove(publicURL string) {
	name := strings.TrimPrefix(publicURL, PublicPrefix)
	if name == publicURL || name == "" || strings.ContainsAny(name, `/\`) {
		return
	}
	os.Remove(filepath.Join(s.dir, name))
}

func (s *Store) limit() int64 {
	if s.maxBytes > 0 {
		return s.maxBytes
	}
	return 1 << 30
}
