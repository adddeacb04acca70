package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
)

type object struct {
	contentType string
	data        []byte
}

type Memory struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
	now     func() time.Time
}

// NewMemory returns an in-process store. Signed URLs are rooted at baseURL,
// or "memory://" when empty.
func NewMemory(baseURL string) *Memory {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "memory:/"
	}
	return &Memory{
		objects: map[string]object{},
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return fmt.Errorf("object key required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read object body: %w", err)
	}
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	m.mu.Lock()
	m.objects[key] = object{contentType: contentType, data: data}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[strings.TrimLeft(key, "/")]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %q: %w", key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *Memory) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = strings.TrimLeft(key, "/")
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("sign %q: %w", key, ErrNotFound)
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", m.now().Add(ttl).Unix()))
	return m.baseURL + "/" + key + "?" + q.Encode(), nil
}

// ContentType reports the stored content type of key.
func (m *Memory) ContentType(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[strings.TrimLeft(key, "/")]
	return obj.contentType, ok
}

// Keys lists stored keys; handy in tests.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
