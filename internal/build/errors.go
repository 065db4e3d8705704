package build

import (
	"errors"
	"fmt"
)

// ErrFileSystemOperation is matched by failures to copy, create or remove
// parts of the build tree.
var ErrFileSystemOperation = errors.New("file system operation failed")

func fsError(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, ErrFileSystemOperation, err)
}
