package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader by round-tripping a form.
func fileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, 1024)
	require.NoError(t, err)

	url, err := store.Save(fileHeader(t, "wallet.PNG", "image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, PublicPrefix))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(dir, strings.TrimPrefix(url, PublicPrefix))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	store.Remove(url)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestValidateRejects(t *testing.T) {
	store, err := New(t.TempDir(), 4)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Validate(fileHeader(t, "notes.txt", "text/plain", []byte("x"))), ErrUnsupportedType)
	assert.ErrorIs(t, store.Validate(fileHeader(t, "fake.jpg", "application/pdf", []byte("x"))), ErrUnsupportedType)
	assert.ErrorIs(t, store.Validate(fileHeader(t, "big.gif", "image/gif", []byte("too large"))), ErrTooLarge)
	assert.NoError(t, store.Validate(fileHeader(t, "ok.jpeg", "image/jpeg", []byte("ok"))))
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	store, err := New(filepath.Join(dir, "uploads"), 0)
	require.NoError(t, err)
	store.Remove("/uploads/../keep.txt")
	store.Remove("/elsewhere/keep.txt")

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestSaveRejectsUnderReportedSize(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, 4)
	require.NoError(t, err)

	fh := fileHeader(t, "big.png", "image/png", []byte("0123456789"))
	fh.Size = 2

	_, err = store.Save(fh)
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
