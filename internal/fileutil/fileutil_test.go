package fileutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(path, []byte("one"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0644); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestWriteIfChangedTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	changed, err := WriteIfChangedTracked(path, []byte("x"), 0644)
	if err != nil || !changed {
		t.Fatalf("expected first write to change file, changed=%v err=%v", changed, err)
	}
	changed, err = WriteIfChangedTracked(path, []byte("x"), 0644)
	if err != nil || changed {
		t.Fatalf("expected identical write to be skipped, changed=%v err=%v", changed, err)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "a", want: []string{"a"}},
		{in: "a\nb\n", want: []string{"a", "b"}},
		{in: "a\r\nb", want: []string{"a", "b"}},
		{in: "a\n\n", want: []string{"a", ""}},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("SplitLines(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestHashBytesStable(t *testing.T) {
	if HashBytes([]byte("abc")) != HashBytes([]byte("abc")) {
		t.Fatalf("expected stable hash")
	}
	if HashBytes([]byte("abc")) == HashBytes([]byte("abd")) {
		t.Fatalf("expected different hashes for different content")
	}
	if len(HashBytes(nil)) != 16 {
		t.Fatalf("expected 16 hex chars")
	}
}
