package services

import (
	"context"
	"errors"
	"sync"

	"github.com/prefeitura-rio/app-cadastro/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

// MemoryKeyValue is an in-process KeyValue. Data lives as long as the process.
type MemoryKeyValue struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKeyValue creates an empty in-process store
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{data: make(map[string]string)}
}

func (m *MemoryKeyValue) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MemoryKeyValue) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKeyValue) Ping(context.Context) error { return nil }

func (m *MemoryKeyValue) Backend() string { return "memory" }

// Keys lists the stored keys
func (m *MemoryKeyValue) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// RedisKeyValue stores values as plain Redis strings without expiration
type RedisKeyValue struct {
	client *redisclient.Client
}

// NewRedisKeyValue wraps a traced Redis client
func NewRedisKeyValue(client *redisclient.Client) *RedisKeyValue {
	return &RedisKeyValue{client: client}
}

func (r *RedisKeyValue) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisKeyValue) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisKeyValue) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKeyValue) Backend() string { return "redis" }
