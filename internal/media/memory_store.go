package media

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
	// FailUploads and FailDeletes make the matching operations return an error.
	FailUploads bool
	FailDeletes bool
}

// NewMemoryStore returns an empty store addressing objects under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

// Upload stores the object.
func (m *MemoryStore) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUploads {
		return "", fmt.Errorf("memory store: upload %s refused", key)
	}
	url := m.baseURL + "/" + key
	m.objects[url] = data
	return url, nil
}

// Delete removes the object.
func (m *MemoryStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeletes {
		return fmt.Errorf("memory store: delete %s refused", url)
	}
	delete(m.objects, url)
	return nil
}

// Has reports whether url is stored.
func (m *MemoryStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
