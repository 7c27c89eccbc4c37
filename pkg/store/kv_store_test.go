package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "munin_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "test.data")
	store, err := NewStore(Config{DataFile: path})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Open(); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}

	return store, path
}

func TestStore_BasicOperations(t *testing.T) {
	store, _ := newTestStore(t)

	key := []byte("test_key")
	value := []byte("test_value")

	if err := store.Insert(key, value); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	retrieved, err := store.Get(key)
	if err != nil {
		t.Fatalf("Failed to get value: %v", err)
	}
	if !bytes.Equal(retrieved, value) {
		t.Errorf("Retrieved value mismatch: got %q, want %q", retrieved, value)
	}

	_, err = store.Get([]byte("non_existent"))
	if err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	store, _ := newTestStore(t)

	key := []byte("K")

	if err := store.Insert(key, []byte("A")); err != nil {
		t.Fatalf("Failed to insert A: %v", err)
	}
	if err := store.Insert(key, []byte("B")); err != nil {
		t.Fatalf("Failed to insert B: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(got) != "B" {
		t.Errorf("Get after two inserts = %q, want B", got)
	}

	// The index-free scan must agree with the index.
	_, found, err := store.Find(key)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if string(found) != "B" {
		t.Errorf("Find after two inserts = %q, want B", found)
	}
}

func TestStore_UpdateIsInsert(t *testing.T) {
	store, _ := newTestStore(t)

	key := []byte("update_key")

	if err := store.Update(key, []byte("first")); err != nil {
		t.Fatalf("Update of a fresh key must succeed: %v", err)
	}
	if err := store.Update(key, []byte("second")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get after update = %q, want second", got)
	}
}

func TestStore_DeleteThenGetReturnsEmptyValue(t *testing.T) {
	store, _ := newTestStore(t)

	key := []byte("doomed")

	if err := store.Insert(key, []byte("value")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Delete appends an empty value; the key stays present.
	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get after delete = %v, want empty value", err)
	}
	if len(got) != 0 {
		t.Errorf("Get after delete = %q, want empty", got)
	}
}

func TestStore_FindAbsentKey(t *testing.T) {
	store, _ := newTestStore(t)

	if _, _, err := store.Find([]byte("missing")); err != ErrKeyNotFound {
		t.Errorf("Find on empty log = %v, want ErrKeyNotFound", err)
	}

	if err := store.Insert([]byte("other"), []byte("value")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, _, err := store.Find([]byte("missing")); err != ErrKeyNotFound {
		t.Errorf("Find on non-matching log = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_FindReturnsOffsetOfLastMatch(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Insert([]byte("k"), []byte("old")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert([]byte("k"), []byte("new")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	offset, value, err := store.Find([]byte("k"))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if string(value) != "new" {
		t.Errorf("Find value = %q, want new", value)
	}

	// The offset points at the real record.
	pair, err := store.GetAt(offset)
	if err != nil {
		t.Fatalf("GetAt(%d) failed: %v", offset, err)
	}
	if string(pair.Key) != "k" || string(pair.Value) != "new" {
		t.Errorf("GetAt = (%q, %q), want (k, new)", pair.Key, pair.Value)
	}
}

func TestStore_GetAtInvalidOffset(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Insert([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Past the end of the log: no record header there.
	if _, err := store.GetAt(1 << 20); err == nil {
		t.Error("GetAt past end of log succeeded, want error")
	}
}

func TestStore_EmptyKeyAndValue(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Insert([]byte{}, []byte{}); err != nil {
		t.Fatalf("Insert of empty pair failed: %v", err)
	}

	got, err := store.Get([]byte{})
	if err != nil {
		t.Fatalf("Get of empty key failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Get of empty key = %q, want empty", got)
	}
}

func TestStore_BinaryKeysAndValues(t *testing.T) {
	store, _ := newTestStore(t)

	key := make([]byte, 256)
	value := make([]byte, 256)
	for i := 0; i < 256; i++ {
		key[i] = byte(i)
		value[i] = byte(255 - i)
	}

	if err := store.Insert(key, value); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Error("binary value did not round-trip")
	}
}

func TestStore_GetBeforeLoadIsFalseNegative(t *testing.T) {
	dir, err := os.MkdirTemp("", "munin_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.data")

	store, err := NewStore(Config{DataFile: path})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Open(); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	if err := store.Insert([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen without loading: the index is empty, lookups miss.
	store, err = NewStore(Config{DataFile: path})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Open(); err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if store.Loaded() {
		t.Error("store reports loaded before Load")
	}
	if _, err := store.Get([]byte("k")); err != ErrKeyNotFound {
		t.Errorf("Get before Load = %v, want ErrKeyNotFound", err)
	}

	// Find does not need the index and sees the record anyway.
	if _, value, err := store.Find([]byte("k")); err != nil || string(value) != "v" {
		t.Errorf("Find before Load = (%q, %v), want (v, nil)", value, err)
	}

	// Load makes the index authoritative.
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, err := store.Get([]byte("k")); err != nil || string(got) != "v" {
		t.Errorf("Get after Load = (%q, %v), want (v, nil)", got, err)
	}
}

func TestStore_RecoveryEquivalence(t *testing.T) {
	dir, err := os.MkdirTemp("", "munin_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.data")

	open := func() *Store {
		t.Helper()
		store, err := NewStore(Config{DataFile: path})
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if err := store.Open(); err != nil {
			t.Fatalf("Failed to open store: %v", err)
		}
		if err := store.Load(); err != nil {
			t.Fatalf("Failed to load store: %v", err)
		}
		return store
	}

	store := open()
	if err := store.Insert([]byte("name"), []byte("alice")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert([]byte("name"), []byte("bob")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert([]byte("age"), []byte("30")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Delete([]byte("tmp")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	check := func(store *Store) {
		t.Helper()
		if got, err := store.Get([]byte("name")); err != nil || string(got) != "bob" {
			t.Errorf("get(name) = (%q, %v), want bob", got, err)
		}
		if got, err := store.Get([]byte("age")); err != nil || string(got) != "30" {
			t.Errorf("get(age) = (%q, %v), want 30", got, err)
		}
		if _, err := store.Get([]byte("missing")); err != ErrKeyNotFound {
			t.Errorf("get(missing) = %v, want ErrKeyNotFound", err)
		}
		if got, err := store.Get([]byte("tmp")); err != nil || len(got) != 0 {
			t.Errorf("get(tmp) = (%q, %v), want empty value", got, err)
		}
	}

	// The incrementally built index...
	check(store)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// ...and the scan-rebuilt one answer identically.
	store = open()
	defer store.Close()
	check(store)
}

func TestStore_StatsAndKeys(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Insert([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert([]byte("a"), []byte("3")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	stats := store.Stats()
	if stats.Keys != 2 {
		t.Errorf("Stats.Keys = %d, want 2", stats.Keys)
	}
	if stats.DataSize == 0 {
		t.Error("Stats.DataSize = 0, want > 0")
	}
	if !stats.Loaded {
		t.Error("Stats.Loaded = false, want true")
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys() returned %d keys, want 2", len(keys))
	}
}

func TestStore_OperationsAfterClose(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.Get([]byte("k")); err != ErrNotOpen {
		t.Errorf("Get after close = %v, want ErrNotOpen", err)
	}
	if err := store.Insert([]byte("k"), []byte("v")); err != ErrNotOpen {
		t.Errorf("Insert after close = %v, want ErrNotOpen", err)
	}

	// Double close is harmless.
	if err := store.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
