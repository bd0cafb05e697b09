package storage

import (
	"context"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryImageStore keeps images in process memory.
// It backs deployments without object storage and tests.
type MemoryImageStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	uploads int
}

// NewMemoryImageStore creates an empty in-memory image store
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{objects: make(map[string]memoryObject)}
}

// Upload stores a copy of data under storageKey
func (m *MemoryImageStore) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	m.uploads++
	return nil
}

// Exists reports whether storageKey is stored
func (m *MemoryImageStore) Exists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrStorageKeyRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[storageKey]
	return ok, nil
}

// Delete removes storageKey; deleting a missing key succeeds
func (m *MemoryImageStore) Delete(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// DownloadURL returns a memory:// URL; it is only meaningful inside this process
func (m *MemoryImageStore) DownloadURL(_ context.Context, storageKey string) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	return "memory://" + storageKey, time.Time{}, nil
}

// Get returns the stored bytes and content type of storageKey
func (m *MemoryImageStore) Get(storageKey string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj.data, obj.contentType, ok
}

// Uploads returns the number of Upload calls
func (m *MemoryImageStore) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}
