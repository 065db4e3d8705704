// Package lockedfile provides an advisory, process-level mutex backed by a
// lock file on disk.
package lockedfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// A Mutex provides mutual exclusion within and across processes by locking a
// well-known file. The zero Mutex is not usable; use MutexAt.
type Mutex struct {
	path string
}

// MutexAt returns a new Mutex with the given lock file path.
// The file is created on first Lock if it does not exist.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{path: path}
}

func (mu *Mutex) String() string {
	return fmt.Sprintf("lockedfile.Mutex(%s)", mu.path)
}

// Lock blocks until it holds the lock and returns the function that releases it.
func (mu *Mutex) Lock() (unlock func(), err error) {
	if err := os.MkdirAll(filepath.Dir(mu.path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(mu.path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, &os.PathError{Op: "lock", Path: mu.path, Err: err}
	}
	return func() {
		unlockFile(f)
		f.Close()
	}, nil
}
