package similarity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tabforge"
)

func TestSaveAndLoadCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")

	g, _ := primedGuard(t, tabforge.ActionReject, 0.95)
	if err := g.SaveCache(path); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	srv, calls := vectorServer(t, sampleVecs())
	restored := NewGuard(NewEmbedder(srv.URL, "", "test-model"), 0.95, tabforge.ActionReject)
	if err := restored.LoadCache(path); err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got := restored.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 after restore", got)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("embedding requests = %d, want 0 for a restore", got)
	}

	// Priming with the cached rows should not embed them again.
	if err := restored.Prime(context.Background(), []string{"1,alpha", "2,beta"}); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("embedding requests = %d, want 0 when all rows are cached", got)
	}

	// The restored guard screens like the original.
	if got := restored.Screen(context.Background(), []string{"1,alpha"}); len(got) != 0 {
		t.Errorf("kept %v, want cached duplicate dropped", got)
	}
}

func TestLoadCacheModelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")

	g, _ := primedGuard(t, tabforge.ActionWarn, 0.95)
	if err := g.SaveCache(path); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	srv, _ := vectorServer(t, nil)
	other := NewGuard(NewEmbedder(srv.URL, "", "other-model"), 0.95, tabforge.ActionWarn)
	if err := other.LoadCache(path); err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got := other.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 for a different model's cache", got)
	}
}

func TestLoadCacheMissingFile(t *testing.T) {
	srv, _ := vectorServer(t, nil)
	g := NewGuard(NewEmbedder(srv.URL, "", "test-model"), 0.95, tabforge.ActionWarn)
	if err := g.LoadCache(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing cache file")
	}
}

func TestLoadCacheCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	srv, _ := vectorServer(t, nil)
	g := NewGuard(NewEmbedder(srv.URL, "", "test-model"), 0.95, tabforge.ActionWarn)
	if err := g.LoadCache(path); err == nil {
		t.Fatal("expected error for corrupt cache file")
	}
}
