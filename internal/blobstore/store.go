// Package blobstore is the narrow interface the core uses to fetch
// uploaded source documents and write rendered reports/audio, behind an
// S3-compatible HTTP backend. Presigning and upload flows are out of
// scope (owned by the external caller per spec); the core only reads and
// writes by key.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/interceptors"
)

// Store fetches and stores blobs by key.
type Store interface {
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte, contentType string) error
}

// HTTPStore talks to an S3-compatible endpoint over plain HTTP PUT/GET,
// matching the access pattern the teacher's HTTP-backed clients
// (embeddings, vector DB) already use rather than pulling in a dedicated
// cloud SDK for a single bucket. Requests go through the teacher's
// circuitbreaker.HTTPWrapper, same as every other external client.
type HTTPStore struct {
	endpoint string
	bucket   string
	client   *circuitbreaker.HTTPWrapper
}

// NewHTTPStore constructs a Store against endpoint/bucket.
func NewHTTPStore(endpoint, bucket string, logger *zap.Logger) *HTTPStore {
	httpClient := &http.Client{Transport: interceptors.NewWorkflowHTTPRoundTripper(nil)}
	return &HTTPStore{
		endpoint: endpoint,
		bucket:   bucket,
		client:   circuitbreaker.NewHTTPWrapper(httpClient, "blob-store", "blob-store", logger),
	}
}

func (s *HTTPStore) url(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}

// GetBlob fetches key's bytes, failing fast with apperr.NotFound on 404
// and apperr.InvalidRequest on 403, per the Ingestion Pipeline's "fail
// fast on permission/not-found" requirement.
func (s *HTTPStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, apperr.Storage(err, "build blob fetch request for %s", key)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Storage(err, "fetch blob %s", key)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperr.NotFound("blob %s", key)
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, apperr.InvalidRequest("blob %s: permission denied", key)
	default:
		return nil, apperr.Storage(fmt.Errorf("status %d", resp.StatusCode), "fetch blob %s", key)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Storage(err, "read blob %s", key)
	}
	return data, nil
}

// PutBlob writes data under key.
func (s *HTTPStore) PutBlob(ctx context.Context, key string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url(key), bytes.NewReader(data))
	if err != nil {
		return apperr.Storage(err, "build blob put request for %s", key)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := s.client.Do(req)
	if err != nil {
		return apperr.Storage(err, "put blob %s", key)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return apperr.Storage(fmt.Errorf("status %d", resp.StatusCode), "put blob %s", key)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) GetBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, apperr.NotFound("blob %s", key)
	}
	return v, nil
}

func (m *MemStore) PutBlob(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}
