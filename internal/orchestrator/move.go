package orchestrator

import (
	"io"
	"os"
	"path/filepath"
)

// moveContents moves every top-level entry of src into dst, preserving
// relative structure. Entries are renamed; on the same volume that is an
// instant operation. A rename that fails (cross-device or otherwise)
// falls back to a recursive copy followed by deletion of the source.
func moveContents(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing to move
		}
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			return err
		}
		if err := os.Rename(srcPath, dstPath); err != nil {
			if copyErr := copyPath(srcPath, dstPath); copyErr != nil {
				return copyErr
			}
			os.RemoveAll(srcPath)
		}
	}
	return nil
}

// copyPath copies a file or directory tree recursively.
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.MkdirAll(dst, info.Mode()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := copyPath(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
