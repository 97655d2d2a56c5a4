package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func uploadedFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["video"][0]
}

func TestSaveAndRemove(t *testing.T) {
	s, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	key, err := s.Save(uploadedFile(t, "Lesson One.MP4", "fake video bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".mp4"), "key %q should keep the lowercased extension", key)
	assert.True(t, ValidKey(key))

	data, err := os.ReadFile(filepath.Join(s.Dir(), key))
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(data))

	s.Remove(key)
	_, err = os.Stat(filepath.Join(s.Dir(), key))
	assert.True(t, os.IsNotExist(err))

	// removing again is a no-op
	s.Remove(key)
}

func TestSaveDistinctKeys(t *testing.T) {
	s, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	k1, err := s.Save(uploadedFile(t, "a.mp4", "one"))
	require.NoError(t, err)
	k2, err := s.Save(uploadedFile(t, "a.mp4", "two"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("0a1b2c.mp4"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey(".."))
	assert.False(t, ValidKey("../etc/passwd"))
	assert.False(t, ValidKey(`dir\file.mp4`))
}

func TestSanitizeExt(t *testing.T) {
	assert.Equal(t, ".mp4", sanitizeExt("Lesson.MP4"))
	assert.Equal(t, ".webm", sanitizeExt("clip.webm"))
	assert.Equal(t, "", sanitizeExt("noext"))
	assert.Equal(t, "", sanitizeExt("weird.e x t"))
	assert.Equal(t, "", sanitizeExt("long.extension12345"))
}
