package test

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Rediser is an in-memory fake of the go-redis client used for
// challenge and nonce storage. Expirations are not enforced.
type Rediser struct {
	mu     sync.Mutex
	values map[string]string
}

// Get mock.
func (m *Rediser) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

// Set mock.
func (m *Rediser) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values == nil {
		m.values = make(map[string]string)
	}

	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	}

	return redis.NewStatusResult("OK", nil)
}

// Del mock.
func (m *Rediser) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}

	return redis.NewIntResult(removed, nil)
}

// Close mock.
func (m *Rediser) Close() error {
	return nil
}
