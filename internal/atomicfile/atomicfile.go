// Package atomicfile writes files through a temp file and rename so a failed
// write never leaves a truncated record or host file behind.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFile writes data to path atomically. When path already exists its
// permissions are preserved; new files get 0644. Missing parent directories
// are created.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	perm := os.FileMode(filePerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to write temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to close temp file for %s", path)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to set permissions on %s", tmpPath)
	}

	// Rename to final location (atomic on the same filesystem)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to rename temp file to %s", path)
	}
	return nil
}
