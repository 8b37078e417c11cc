package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waffle.jpg"), []byte("bytes"), 0o644))

	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", store.Name())

	rc, err := store.Open(context.Background(), "waffle.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))

	for _, name := range []string{"missing.jpg", "../waffle.jpg", "", ".hidden"} {
		_, err := store.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrObjectNotFound, name)
	}
}

func TestNewLocalStore_Invalid(t *testing.T) {
	_, err := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewLocalStore(file)
	assert.Error(t, err)
}

func TestAzureStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/samples/waffle.jpg":
			w.Header().Set("Content-Length", "5")
			w.Write([]byte("bytes"))
		default:
			w.Header().Set("x-ms-error-code", "BlobNotFound")
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store, err := newAzureStore(server.URL, "devaccount", "ZGV2a2V5", "samples")
	require.NoError(t, err)
	assert.Equal(t, "azure", store.Name())

	rc, err := store.Open(context.Background(), "waffle.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))

	_, err = store.Open(context.Background(), "pancake.jpg")
	assert.True(t, errors.Is(err, ErrObjectNotFound), "got %v", err)
}

func TestNewAzureStore_BadKey(t *testing.T) {
	_, err := NewAzureStore("account", "not base64!", "samples")
	assert.Error(t, err)
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(strings.NewReader("abc"), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	_, err = ReadLimited(strings.NewReader("abcd"), 3)
	assert.ErrorIs(t, err, ErrTooLarge)
}
