package upload_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclub/internal/upload"
)

var limits = upload.Limits{MaxMB: 1, Types: []string{"image/png", "image/jpeg"}}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		want        error
	}{
		{name: "png ok", contentType: "image/png", size: 1024},
		{name: "params are ignored", contentType: "image/jpeg; charset=binary", size: 10},
		{name: "exactly at limit", contentType: "image/png", size: 1 << 20},
		{name: "over limit", contentType: "image/png", size: 1<<20 + 1, want: upload.ErrTooLarge},
		{name: "empty", contentType: "image/png", size: 0, want: upload.ErrEmpty},
		{name: "pdf", contentType: "application/pdf", size: 10, want: upload.ErrUnsupportedType},
		{name: "garbage type", contentType: ";;", size: 10, want: upload.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := upload.Check(tt.contentType, tt.size, limits)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCheckSizeIgnoresType(t *testing.T) {
	require.NoError(t, upload.CheckSize(10, upload.Limits{MaxMB: 1}))
	assert.ErrorIs(t, upload.CheckSize(2<<20, limits), upload.ErrTooLarge)
	assert.ErrorIs(t, upload.CheckSize(-1, limits), upload.ErrEmpty)
}

func TestSniff(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16))
	assert.Equal(t, "image/png", upload.Sniff(png))
	assert.NotEqual(t, "image/png", upload.Sniff([]byte("%PDF-1.4")))
}

func TestLocalStoragePut(t *testing.T) {
	dir := t.TempDir()
	s := &upload.LocalStorage{Dir: dir, BaseURL: "/media/"}

	name := upload.ObjectName("uploads", "image/png")
	assert.True(t, strings.HasPrefix(name, "uploads/"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	url, err := s.Put(context.Background(), name, "image/png", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Equal(t, "/media/"+name, url)

	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	_, err = s.Put(context.Background(), "../escape.png", "image/png", bytes.NewReader(nil))
	assert.Error(t, err)
}
