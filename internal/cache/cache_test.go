package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLockFileSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "haira.lock")

	lf := New()
	lf.Set("get_answer", Entry{Digest: "abc123", Model: "stub-model", CIRVersion: "1.0"})
	if err := lf.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := loaded.Get("get_answer")
	if !ok || e.Digest != "abc123" {
		t.Fatalf("expected round-tripped entry, got %+v, ok=%v", e, ok)
	}
}

func TestLoadMissingLockFileReturnsEmpty(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), "nope.lock"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lf.AIGenerated) != 0 {
		t.Fatalf("expected an empty lock file, got %+v", lf)
	}
}

func TestStoreWriteReadHas(t *testing.T) {
	store, err := NewStore(t.TempDir(), "ai", ".cir")
	if err != nil {
		t.Fatal(err)
	}
	if store.Has("deadbeef") {
		t.Fatal("expected key to be absent before write")
	}
	if err := store.Write("deadbeef", []byte(`{"name":"x"}`)); err != nil {
		t.Fatal(err)
	}
	if !store.Has("deadbeef") {
		t.Fatal("expected key to be present after write")
	}
	got, err := store.Read("deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"name":"x"}` {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestStoreIndexMerge(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "ai", ".cir")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateIndex("k1", IndexEntry{Name: "f1", CreatedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateIndex("k2", IndexEntry{Name: "f2", CreatedAt: "2026-01-02T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ai", "index.json")); err != nil {
		t.Fatalf("expected index.json to exist: %v", err)
	}
}
