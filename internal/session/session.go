// Package session models browser session storage as an injectable key-value
// store with a JSON codec boundary.
package session

import (
	"encoding/json"
	"sync"
)

// Storage is the minimal surface of a per-origin session store. Values are
// strings; absence is reported with the ok flag rather than an error.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// GetJSON decodes the JSON value stored under key into dst. Missing or
// malformed content is treated as absent.
func GetJSON(s Storage, key string, dst any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}

// SetJSON stores v under key as JSON. Best effort: unencodable values leave
// the previous entry untouched.
func SetJSON(s Storage, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(key, string(raw))
}

// MemoryStorage is an in-memory Storage, used both as the default backing
// store and as a test fake.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStorage) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Len reports the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
