package build

import (
	"io"
	"os"
	"path/filepath"
)

// vcsDirs are never copied into the build tree.
var vcsDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// copyTree copies the contents of src into dst recursively. Files already
// present in dst are replaced, not merged.
func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fsError("read dir", src, err)
	}
	for _, e := range entries {
		name := e.Name()
		if vcsDirs[name] {
			continue
		}
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)

		switch {
		case e.Type()&os.ModeSymlink != 0:
			if err := copySymlink(from, to); err != nil {
				return err
			}
		case e.IsDir():
			if err := os.MkdirAll(to, 0o755); err != nil {
				return fsError("create dir", to, err)
			}
			if err := copyTree(from, to); err != nil {
				return err
			}
		default:
			if err := copyFile(from, to); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(from, to string) error {
	if err := os.Remove(to); err != nil && !os.IsNotExist(err) {
		return fsError("remove", to, err)
	}
	in, err := os.Open(from)
	if err != nil {
		return fsError("open", from, err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return fsError("stat", from, err)
	}
	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return fsError("create", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fsError("copy", to, err)
	}
	if err := out.Close(); err != nil {
		return fsError("close", to, err)
	}
	return nil
}

func copySymlink(from, to string) error {
	link, err := os.Readlink(from)
	if err != nil {
		return fsError("read link", from, err)
	}
	if err := os.RemoveAll(to); err != nil {
		return fsError("remove", to, err)
	}
	if err := os.Symlink(link, to); err != nil {
		return fsError("symlink", to, err)
	}
	return nil
}
