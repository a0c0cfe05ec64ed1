// Package media stores uploaded binary assets (video files, thumbnails,
// avatars, cover images) and hands back public URLs. Persistence of the URLs
// themselves belongs to the entity stores; this package only moves bytes.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Upload is one incoming file as extracted from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// BlobStore persists uploaded assets under generated keys.
type BlobStore interface {
	// Put stores the reader's content and returns a public URL for it.
	// folder namespaces the key (e.g. "videos", "avatars"); filename only
	// contributes its extension.
	Put(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
	// Delete removes a previously stored asset by its public URL. Deleting
	// an unknown URL is not an error.
	Delete(ctx context.Context, url string) error
}

// objectKey builds a collision-free key preserving the upload's extension.
func objectKey(folder, filename string) string {
	key := uuid.NewString()
	if ext := path.Ext(filename); ext != "" {
		key += strings.ToLower(ext)
	}
	if folder != "" {
		key = folder + "/" + key
	}
	return key
}

// MemoryStore keeps blobs in a map. Test and local-development backend.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ BlobStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	key := objectKey(folder, filename)
	url := "memory://" + key

	m.mu.Lock()
	m.blobs[url] = data
	m.mu.Unlock()
	return url, nil
}

func (m *MemoryStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	delete(m.blobs, url)
	m.mu.Unlock()
	return nil
}

// Get returns a stored blob. Test helper.
func (m *MemoryStore) Get(url string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[url]
	return data, ok
}

// Len reports the number of stored blobs. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
