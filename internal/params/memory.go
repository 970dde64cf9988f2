package params

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory — in-memory реализация Directory.
// Используется в тестах и при локальном запуске без Postgres.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory создаёт пустой in-memory каталог.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Put записывает параметр, перезаписывая существующий.
func (m *Memory) Put(_ context.Context, path, value string) error {
	if path == "" {
		return ErrEmptyPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[path] = value
	return nil
}

// Get возвращает значение параметра.
func (m *Memory) Get(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[path]
	if !ok {
		return "", ErrParamNotFound
	}
	return value, nil
}

// List возвращает параметры с данным префиксом, отсортированные по пути.
func (m *Memory) List(_ context.Context, prefix string) ([]Param, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Param
	for path, value := range m.values {
		if strings.HasPrefix(path, prefix) {
			out = append(out, Param{Path: path, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Delete удаляет параметр. Отсутствующий путь — ErrParamNotFound.
func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[path]; !ok {
		return ErrParamNotFound
	}
	delete(m.values, path)
	return nil
}
