package db

import (
	"context"
	"testing"
)

func TestKVStoreGetMissingKey(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	value, ok, err := store.Get(context.Background(), "todos")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key, got %q", value)
	}
}

func TestKVStoreSetOverwrites(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Set(ctx, "todos", "[]"); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := store.Set(ctx, "todos", `[{"id":1,"text":"a","priority":"basse"}]`); err != nil {
		t.Fatalf("second set: %v", err)
	}

	value, ok, err := store.Get(ctx, "todos")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if value != `[{"id":1,"text":"a","priority":"basse"}]` {
		t.Fatalf("expected overwritten value, got %q", value)
	}

	if err := store.Delete(ctx, "todos"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "todos"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestMemoryStoreMatchesKVContract(t *testing.T) {
	var store KV = NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := store.Get(ctx, "todos"); ok {
		t.Fatalf("expected empty memory store")
	}
	if err := store.Set(ctx, "todos", "a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "todos", "b"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	value, ok, err := store.Get(ctx, "todos")
	if err != nil || !ok || value != "b" {
		t.Fatalf("expected b, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestOpenKVMemoryIgnoresDSN(t *testing.T) {
	store, err := OpenKV("mem", "")
	if err != nil {
		t.Fatalf("open memory kv: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", store)
	}
}

func TestNormalizeDriver(t *testing.T) {
	cases := map[string]string{
		"":           DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgresql": DriverPostgres,
		"mariadb":    DriverMySQL,
		"memory":     DriverMemory,
	}
	for input, want := range cases {
		got, err := NormalizeDriver(input)
		if err != nil {
			t.Fatalf("normalize %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("normalize %q: expected %q, got %q", input, want, got)
		}
	}
	if _, err := NormalizeDriver("redis"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	store := &KVStore{driver: DriverPostgres}
	got := store.rebind("SELECT item_value FROM kv_items WHERE item_key = ? AND item_value = ?")
	want := "SELECT item_value FROM kv_items WHERE item_key = $1 AND item_value = $2"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func newTestStore(t *testing.T) (*KVStore, func()) {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store, err := NewKVStore(db, DriverSQLite)
	if err != nil {
		t.Fatalf("new kv store: %v", err)
	}
	return store, func() {
		_ = db.Close()
	}
}
