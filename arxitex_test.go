package arxitex_test

import (
	"path/filepath"
	"testing"

	"arxitex"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := arxitex.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Error("expected non-nil store")
	}
}

func TestConstants(t *testing.T) {
	if arxitex.ModeFull != "full" {
		t.Errorf("ModeFull = %q, want %q", arxitex.ModeFull, "full")
	}
	if arxitex.ArtifactTheorem != "theorem" {
		t.Errorf("ArtifactTheorem = %q, want %q", arxitex.ArtifactTheorem, "theorem")
	}
	if arxitex.EdgeReference != "reference" {
		t.Errorf("EdgeReference = %q, want %q", arxitex.EdgeReference, "reference")
	}
	if arxitex.EdgeDependency != "dependency" {
		t.Errorf("EdgeDependency = %q, want %q", arxitex.EdgeDependency, "dependency")
	}
}
