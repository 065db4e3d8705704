package lockedfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMutexExcludes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".lock")
	mu := MutexAt(path)

	unlock, err := mu.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	acquired := make(chan func())
	go func() {
		u, err := MutexAt(path).Lock()
		if err != nil {
			t.Errorf("second Lock: %v", err)
			close(acquired)
			return
		}
		acquired <- u
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock succeeded while the first was held")
	case <-time.After(100 * time.Millisecond):
	}

	unlock()

	select {
	case u := <-acquired:
		if u != nil {
			u()
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second Lock did not proceed after unlock")
	}
}

func TestMutexAtEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MutexAt(\"\") did not panic")
		}
	}()
	MutexAt("")
}
