package install

import (
	"os"
	"path/filepath"
)

// MarkerName is the sentinel file signaling a completed installation.
const MarkerName = "install.lock"

// MarkerPath returns the path of the completion marker inside dir.
func MarkerPath(dir string) string {
	return filepath.Join(dir, MarkerName)
}

// Installed reports whether a previous installation into dir fully
// completed. I/O errors are treated as "not installed" so a damaged
// directory is rebuilt rather than trusted.
func Installed(dir string) bool {
	info, err := os.Stat(MarkerPath(dir))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Mark records completion by creating the zero-byte marker. It is the
// very last step of an installation.
func Mark(dir string) error {
	path := MarkerPath(dir)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &LockError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &LockError{Path: path, Err: err}
	}
	return nil
}

// Reset wipes the install directory so a fresh installation starts from
// nothing. A missing directory is not an error.
func Reset(dir string) error {
	return os.RemoveAll(dir)
}

// EnsureDir creates the install directory tree.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &DirectoryError{Dir: dir, Err: err}
	}
	return nil
}
