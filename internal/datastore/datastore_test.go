package datastore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newStore(t *testing.T, path string) *DataStore {
	t.Helper()
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	return ds
}

func TestPutGetPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds := newStore(t, path)

	if err := ds.Put("g1", record{Name: "Strahd", Count: 3}); err != nil {
		t.Fatal(err)
	}
	var got record
	ok, err := ds.Get("g1", &got)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.Name != "Strahd" || got.Count != 3 {
		t.Errorf("Get() = %+v", got)
	}
	if ok, _ := ds.Get("missing", &got); ok {
		t.Error("Get(missing) should report false")
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := newStore(t, path)
	defer reopened.Close()
	var again record
	if ok, err := reopened.Get("g1", &again); !ok || err != nil || again != got {
		t.Errorf("after reopen Get() = %+v, %v, %v", again, ok, err)
	}
	if keys := reopened.Keys(); len(keys) != 1 || keys[0] != "g1" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestClosedStore(t *testing.T) {
	ds := newStore(t, filepath.Join(t.TempDir(), "s.json"))
	ds.Close()

	if err := ds.Put("k", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after close = %v, want ErrClosed", err)
	}
	if err := ds.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after close = %v, want ErrClosed", err)
	}
	if err := ds.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("New() should fail on invalid JSON")
	}
}

func TestDeleteAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	ds := newStore(t, path)
	defer ds.Close()

	ds.Put("a", 1)
	ds.Put("b", 2)
	ds.Delete("a")
	if err := ds.Flush(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("flush wrote an empty file")
	}
	if keys := ds.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Keys() = %v, want [b]", keys)
	}
}
