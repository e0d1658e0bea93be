package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/clipfeed/clipfeed/internal/storage"
)

const (
	defaultMediaExt = ".mp4"
	suffixAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength    = 10
)

type MediaService struct {
	storage  storage.Storage
	maxBytes int64
	now      func() time.Time
}

func NewMediaService(storage storage.Storage, maxBytes int64) *MediaService {
	return &MediaService{
		storage:  storage,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *MediaService) TooLarge() error {
	return FileTooLarge(s.maxBytes)
}

// FileTooLarge reports the upload ceiling in human units.
func FileTooLarge(maxBytes int64) error {
	return fmt.Errorf("%w: maximum upload size is %s", ErrFileTooLarge, humanize.IBytes(uint64(maxBytes)))
}

// Store writes an upload under a fresh name and returns that name.
// size is the length the client declared; oversized uploads are rejected
// before any content is read.
func (s *MediaService) Store(ctx context.Context, r io.Reader, originalName string, size int64) (string, error) {
	if r == nil {
		return "", ErrMissingFile
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", s.TooLarge()
	}

	name, err := s.filename(originalName)
	if err != nil {
		return "", err
	}

	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	counted := &countingReader{r: r}

	err = s.storage.Save(ctx, name, counted)
	if err != nil {
		return "", fmt.Errorf("failed to save media: %w", err)
	}

	// The declared size can lie; the limit reader caught anything past the ceiling.
	if s.maxBytes > 0 && counted.n > s.maxBytes {
		s.discard(ctx, name)
		return "", s.TooLarge()
	}

	return name, nil
}

// discard removes a file that was stored but rejected. A failure leaves an
// orphaned file behind and is only logged.
func (s *MediaService) discard(ctx context.Context, name string) {
	err := s.storage.Delete(ctx, name)
	if err != nil {
		slog.Warn("failed to remove rejected upload", "filename", name, "error", err)
	}
}

func (s *MediaService) filename(originalName string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate media name: %w", err)
	}
	return strconv.FormatInt(s.now().UnixMilli(), 10) + suffix + mediaExt(originalName), nil
}

// mediaExt keeps a plain alphanumeric extension from the client's filename.
func mediaExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) < 2 || len(ext) > 6 {
		return defaultMediaExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultMediaExt
		}
	}
	return ext
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
