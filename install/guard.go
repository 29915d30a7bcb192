package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// staleLockThreshold is the maximum age of an installer lock before a
// crashed process is assumed and the lock reclaimed.
const staleLockThreshold = 10 * time.Minute

// ErrBusy reports that another process is installing into the same
// directory.
var ErrBusy = errors.New("install: another installation is in progress")

// processLock is a cross-process mutual exclusion file for one install
// directory. It lives next to the directory, not inside it, so wiping
// partial state does not release the lock.
type processLock struct {
	path string
	file *os.File
}

func lockPath(dir string) string {
	return filepath.Clean(dir) + ".installing"
}

// acquireLock takes the installer lock for dir. O_CREATE|O_EXCL makes
// creation atomic; a lock older than staleLockThreshold is reclaimed
// once.
func acquireLock(dir string) (*processLock, error) {
	path := lockPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !isLockStale(path) {
			return nil, ErrBusy
		}
		os.Remove(path)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrBusy
		}
	}

	meta := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(meta); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock metadata: %w", err)
	}

	return &processLock{path: path, file: file}, nil
}

func (l *processLock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func isLockStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockThreshold
}
