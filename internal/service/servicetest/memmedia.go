package servicetest

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemMedia is an in-memory service.MediaStore
type MemMedia struct {
	mu      sync.Mutex
	seq     int
	Objects map[string][]byte
}

// NewMemMedia returns an empty media store
func NewMemMedia() *MemMedia {
	return &MemMedia{Objects: map[string][]byte{}}
}

func (m *MemMedia) Save(_ context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := fmt.Sprintf("blog_images/%d-%s", m.seq, name)
	m.Objects[key] = data
	return key, nil
}

func (m *MemMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	return nil
}

// Has reports whether key is stored
func (m *MemMedia) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}

// URL mirrors the local backend's public path
func (m *MemMedia) URL(key string) string {
	return "/media/" + key
}
