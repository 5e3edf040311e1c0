package services

import (
	"context"
	"sync"
	"time"
)

// MockCache is a mock implementation of Cache for testing. Unless a
// *Func override is set, it behaves as a working in-memory store.
type MockCache struct {
	PingFunc              func(ctx context.Context) error
	SetFunc               func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetFunc               func(ctx context.Context, key string) (string, error)
	DelFunc               func(ctx context.Context, keys ...string) error
	ExistsFunc            func(ctx context.Context, keys ...string) (bool, error)
	CloseFunc             func() error
	WaitForConnectionFunc func(ctx context.Context) error

	// Track calls for testing
	PingCalls   int
	SetCalls    []SetCall
	GetCalls    []string
	DelCalls    [][]string
	ExistsCalls [][]string
	CloseCalls  int

	data map[string]string
	mu   sync.Mutex
}

type SetCall struct {
	Key        string
	Value      interface{}
	Expiration time.Duration
}

// NewMockCache creates a new mock cache
func NewMockCache() *MockCache {
	return &MockCache{
		SetCalls:    make([]SetCall, 0),
		GetCalls:    make([]string, 0),
		DelCalls:    make([][]string, 0),
		ExistsCalls: make([][]string, 0),
		data:        make(map[string]string),
	}
}

func (m *MockCache) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.PingCalls++
	m.mu.Unlock()

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, Expiration: expiration})
	m.mu.Unlock()

	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := value.(string); ok {
		m.data[key] = s
	} else if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	}
	return nil
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	m.DelCalls = append(m.DelCalls, keys)
	m.mu.Unlock()

	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MockCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.Lock()
	m.ExistsCalls = append(m.ExistsCalls, keys)
	m.mu.Unlock()

	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, keys...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCache) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockCache) WaitForConnection(ctx context.Context) error {
	if m.WaitForConnectionFunc != nil {
		return m.WaitForConnectionFunc(ctx)
	}
	return nil
}

// SetError configures every operation to fail with err, simulating a
// down backend.
func (m *MockCache) SetError(err error) {
	m.PingFunc = func(ctx context.Context) error { return err }
	m.GetFunc = func(ctx context.Context, key string) (string, error) { return "", err }
	m.SetFunc = func(ctx context.Context, key string, value interface{}, expiration time.Duration) error { return err }
	m.DelFunc = func(ctx context.Context, keys ...string) error { return err }
	m.ExistsFunc = func(ctx context.Context, keys ...string) (bool, error) { return false, err }
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)
