package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// KV is a string-keyed, string-valued persistent store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type KVStore struct {
	DB     *sql.DB
	driver string
}

func NewKVStore(db *sql.DB, driver string) (*KVStore, error) {
	normalized, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	return &KVStore{DB: db, driver: normalized}, nil
}

// OpenKV opens the backend named by driver. The memory driver ignores dsn.
func OpenKV(driver, dsn string) (KV, error) {
	normalized, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	if normalized == DriverMemory {
		return NewMemoryStore(), nil
	}

	sqlDB, err := Open(normalized, dsn)
	if err != nil {
		return nil, err
	}
	return &KVStore{DB: sqlDB, driver: normalized}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, s.rebind("SELECT item_value FROM kv_items WHERE item_key = ?"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.DB.ExecContext(ctx, s.upsertQuery(), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, s.rebind("DELETE FROM kv_items WHERE item_key = ?"), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.DB.Close()
}

func (s *KVStore) upsertQuery() string {
	switch s.driver {
	case DriverMySQL:
		return "INSERT INTO kv_items (item_key, item_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = CURRENT_TIMESTAMP"
	case DriverPostgres:
		return "INSERT INTO kv_items (item_key, item_value) VALUES ($1, $2) ON CONFLICT (item_key) DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = CURRENT_TIMESTAMP"
	default:
		return "INSERT INTO kv_items (item_key, item_value) VALUES (?, ?) ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = CURRENT_TIMESTAMP"
	}
}

// rebind rewrites ? placeholders for postgres.
func (s *KVStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
