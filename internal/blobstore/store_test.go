package blobstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

func TestMemStore_PutThenGet(t *testing.T) {
	m := NewMemStore()

	require.NoError(t, m.PutBlob(context.Background(), "k1", []byte("hello"), "text/plain"))

	data, err := m.GetBlob(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestMemStore_MissingKeyIsNotFound(t *testing.T) {
	m := NewMemStore()

	_, err := m.GetBlob(context.Background(), "missing")

	assert.Equal(t, apperr.KindNotFound, apperr.As(err))
}

func TestHTTPStore_GetBlobOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bucket/doc-1", r.URL.Path)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "bucket", zap.NewNop())
	data, err := s.GetBlob(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestHTTPStore_GetBlobNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "bucket", zap.NewNop())
	_, err := s.GetBlob(context.Background(), "doc-1")

	assert.Equal(t, apperr.KindNotFound, apperr.As(err))
}

func TestHTTPStore_GetBlobForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "bucket", zap.NewNop())
	_, err := s.GetBlob(context.Background(), "doc-1")

	assert.Equal(t, apperr.KindInvalidRequest, apperr.As(err))
}

func TestHTTPStore_PutBlobOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "bucket", zap.NewNop())
	err := s.PutBlob(context.Background(), "doc-1", []byte("data"), "application/pdf")

	assert.NoError(t, err)
}
