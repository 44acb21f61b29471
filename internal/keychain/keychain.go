// Package keychain stores the credentials Addressable needs between runs.
//
// The API client only ever reads from a Store; login and logout are the only
// writers.
package keychain

import (
	"errors"
	"sync"
)

// Keys used by the client.
const (
	KeyBasicAuthToken = "userBasicAuthToken"
	KeyUserData       = "userApplicationData"
	KeyMobileIdentity = "userMobileClientIdentity"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("keychain: store closed")

// Store is a string key-value store for secrets.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*BoltStore)(nil)
)

// NewMemory returns a Memory store seeded with values.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear deletes every key the client writes.
func Clear(s Store) error {
	var errs []error
	for _, key := range []string{KeyBasicAuthToken, KeyUserData, KeyMobileIdentity} {
		if err := s.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
