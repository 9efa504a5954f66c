// Package upload validates and stores images posted by the storefront forms.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmpty           = errors.New("upload: empty file")
	ErrTooLarge        = errors.New("upload: file too large")
	ErrUnsupportedType = errors.New("upload: unsupported file type")
)

type Limits struct {
	MaxMB int
	Types []string
}

func (l Limits) maxBytes() int64 { return int64(l.MaxMB) << 20 }

// CheckSize is the part of Check that needs no file content.
func CheckSize(size int64, l Limits) error {
	if size <= 0 {
		return ErrEmpty
	}
	if size > l.maxBytes() {
		return fmt.Errorf("%w: %d bytes, limit %d MB", ErrTooLarge, size, l.MaxMB)
	}
	return nil
}

// Check is the precondition run before any byte reaches storage.
func Check(contentType string, size int64, l Limits) error {
	if err := CheckSize(size, l); err != nil {
		return err
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if !slices.Contains(l.Types, strings.ToLower(mt)) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, mt)
	}
	return nil
}

// Sniff detects the content type from the first bytes of the file so the
// client's header is never trusted on its own.
func Sniff(head []byte) string {
	return http.DetectContentType(head)
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectName builds a collision-free storage key under dir.
func ObjectName(dir, contentType string) string {
	ext := extByType[contentType]
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join(dir, uuid.NewString()+ext)
}
