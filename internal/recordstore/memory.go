package recordstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// Memory is an in-process Client used when no database URL is configured,
// and as the remote fake in tests. Single-process deployments of a small
// household installation run fine on it; data does not survive restarts.
type Memory struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.records[path]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (m *Memory) Set(_ context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = data
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, path)
	return nil
}

func (m *Memory) List(_ context.Context, path string) (map[string]json.RawMessage, error) {
	prefix := path + "/"
	out := make(map[string]json.RawMessage)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, raw := range m.records {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = raw
		}
	}
	return out, nil
}
