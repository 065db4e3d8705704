//go:build (!unix && !windows) || solaris || aix

package lockedfile

import "os"

// Platforms without file locking fall back to no mutual exclusion.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
