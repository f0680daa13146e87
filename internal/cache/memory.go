package cache

import (
	"context"
	"sync"
	"time"
)

// Memory implements Store with in-process maps. It backs tests and
// single-node deployments that run without redis.
type Memory struct {
	mu      sync.Mutex
	values  map[string]memoryValue
	sets    map[string]map[string]struct{}
	nowFunc func() time.Time
}

type memoryValue struct {
	data      string
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]memoryValue),
		sets:    make(map[string]map[string]struct{}),
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock, so tests can expire entries
func (m *Memory) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowFunc = now
}

// Get retrieves a value, ErrNotFound if absent or expired
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	if !v.expiresAt.IsZero() && !m.nowFunc().Before(v.expiresAt) {
		delete(m.values, key)
		return "", ErrNotFound
	}
	return v.data, nil
}

// Set stores a value with a TTL; zero TTL means no expiry
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := memoryValue{data: value}
	if ttl > 0 {
		v.expiresAt = m.nowFunc().Add(ttl)
	}
	m.values[key] = v
	return nil
}

// Delete removes a key
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// SAdd adds a member to a set
func (m *Memory) SAdd(ctx context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

// SRem removes a member from a set, reporting whether it was present
func (m *Memory) SRem(ctx context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		return false, nil
	}
	if _, present := set[member]; !present {
		return false, nil
	}
	delete(set, member)
	return true, nil
}

// SMembers lists the members of a set
func (m *Memory) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

// FlushAll clears the store
func (m *Memory) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]memoryValue)
	m.sets = make(map[string]map[string]struct{})
	return nil
}

// Health always succeeds
func (m *Memory) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
