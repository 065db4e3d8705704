package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

func TestWorkDir(t *testing.T) {
	workDir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}

	expectedDir := filepath.Join(xdg.CacheHome, "tasslsrc")
	if workDir != expectedDir {
		t.Errorf("WorkDir() = %q, want %q", workDir, expectedDir)
	}

	info, err := os.Stat(workDir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("WorkDir() created a file instead of a directory")
	}
}

// TestWorkDirIdempotent verifies that repeated calls return the same path.
func TestWorkDirIdempotent(t *testing.T) {
	dir1, err := WorkDir()
	if err != nil {
		t.Fatalf("First WorkDir() call failed: %v", err)
	}
	dir2, err := WorkDir()
	if err != nil {
		t.Fatalf("Second WorkDir() call failed: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("WorkDir() not idempotent: %q then %q", dir1, dir2)
	}

	sources, err := SourcesDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(sources) != dir1 {
		t.Errorf("SourcesDir() = %q, want a child of %q", sources, dir1)
	}
}

func TestOr(t *testing.T) {
	t.Setenv("TASSL_TEST_A", "")
	t.Setenv("TASSL_TEST_C", "c")

	if got := Or("TASSL_TEST_A", "def"); got != "def" {
		t.Errorf("Or(empty) = %q, want def", got)
	}
	if got := Or("TASSL_TEST_C", "def"); got != "c" {
		t.Errorf("Or(set) = %q, want c", got)
	}
}
