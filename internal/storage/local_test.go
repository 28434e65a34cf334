package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoragePut(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	url, err := ls.Put(context.Background(), "abc.png", []byte("payload"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/abc.png" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("data = %q", data)
	}
}

func TestLocalStoragePutRejectsBadKey(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, err := ls.Put(context.Background(), "../escape", []byte("x"), ""); err == nil {
		t.Fatalf("expected error")
	}
}
