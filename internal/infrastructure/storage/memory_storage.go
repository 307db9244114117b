package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
)

var _ shipmentapp.SnapshotStorage = (*MemoryObjectStorage)(nil)

// ErrObjectNotFound is returned for keys that were never uploaded
var ErrObjectNotFound = errors.New("object not found")

// MemoryObjectStorage keeps objects in process memory. It backs snapshot
// archiving in local runs and tests when no bucket is configured.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty store whose download URLs are
// rooted at baseURL.
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "memory://snapshots"
	}
	return &MemoryObjectStorage{objects: make(map[string]memoryObject), baseURL: baseURL}
}

// Upload stores a copy of data.
func (m *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GenerateDownloadURL returns a URL for an existing object.
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrObjectNotFound, storageKey)
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	return m.baseURL + "/" + url.PathEscape(storageKey), time.Now().Add(expiresIn), nil
}

// Object returns the stored bytes and content type for storageKey.
func (m *MemoryObjectStorage) Object(storageKey string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj.data, obj.contentType, ok
}
