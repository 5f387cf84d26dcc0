package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestStoreInitWritesSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewStore(path)
	if s.Exists() {
		t.Fatal("store should not exist before Init")
	}
	if err := s.Init([]string{"name", "age"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := readFile(t, path); got != "name,age\n" {
		t.Errorf("file = %q, want header only", got)
	}
	if !s.Exists() {
		t.Error("store should exist after Init")
	}
}

func TestStoreInitLeavesExistingFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	existing := "name,age\nalice,30\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	if err := s.Init([]string{"name", "age"}); err != nil {
		t.Fatalf("Init on existing file: %v", err)
	}
	if got := readFile(t, path); got != existing {
		t.Errorf("existing file modified: %q", got)
	}
}

func TestStoreInitEmptyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewStore(path)
	if err := s.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := readFile(t, path); got != "" {
		t.Errorf("file = %q, want empty", got)
	}
}

func TestStoreAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewStore(path)
	if err := s.Init([]string{"name", "age"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]string{"alice,30", "bob,25"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append([]string{"carol,41"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	want := "name,age\nalice,30\nbob,25\ncarol,41\n"
	if got := readFile(t, path); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestStoreAppendCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewStore(path)
	if err := s.Append([]string{"row,1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := readFile(t, path); got != "row,1\n" {
		t.Errorf("file = %q", got)
	}
}

func TestStoreAppendNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewStore(path)
	if err := s.Append(nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
	if s.Exists() {
		t.Error("empty append should not create the file")
	}
}
