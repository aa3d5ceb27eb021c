package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("ledgers/ex1/a.xlsx", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "ledgers/ex1/a.xlsx" {
		t.Fatalf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "payload" {
		t.Fatalf("got %q", b)
	}

	if _, err := s.Put(key, strings.NewReader("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, _ = os.ReadFile(filepath.Join(dir, "ledgers", "ex1", "a.xlsx"))
	if string(b) != "v2" {
		t.Fatalf("after overwrite %q", b)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "ledgers", "ex1", ".put-*"))
	if len(left) != 0 {
		t.Fatalf("temp files left: %v", left)
	}
}

func TestFSStoreKeysStayInsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "blobs")
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put("../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); !os.IsNotExist(err) {
		t.Fatal("key escaped the base directory")
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Fatalf("blob not under base: %v", err)
	}
	for _, k := range []string{"", "/", ".."} {
		if _, err := s.Put(k, strings.NewReader("x")); err == nil {
			t.Errorf("key %q accepted", k)
		}
	}
}
