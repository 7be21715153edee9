package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/pkg/storage"
)

func TestClean(t *testing.T) {
	for in, want := range map[string]string{
		"products/a.png":       "products/a.png",
		"products//x/../b.jpg": "products/b.jpg",
		`win\path.png`:         "win/path.png",
	} {
		got, err := storage.Clean(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"", "/etc/passwd", "../secret", "a/../../b", "."} {
		_, err := storage.Clean(bad)
		assert.ErrorIs(t, err, storage.ErrInvalidPath, bad)
	}
}

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	d, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:5000/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "products/p1/a.png", strings.NewReader("png-bytes"), "image/png"))

	ok, err := d.Exists(ctx, "products/p1/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Open(ctx, "products/p1/a.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(body))

	assert.Equal(t, "http://localhost:5000/storage/products/p1/a.png", d.URL("products/p1/a.png"))

	rec := httptest.NewRecorder()
	d.Handler("/storage").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/products/p1/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = httptest.NewRecorder()
	d.Handler("/storage").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/products/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, d.Delete(ctx, "products/p1/a.png"))
	require.NoError(t, d.Delete(ctx, "products/p1/a.png"))
	ok, err = d.Exists(ctx, "products/p1/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, d.Put(ctx, "../escape.txt", strings.NewReader("x"), ""), storage.ErrInvalidPath)
}
