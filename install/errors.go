package install

import "fmt"

// DirectoryError reports that the install directory could not be created.
// It aborts the installation.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("create install directory %s: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// LockError reports that the completion marker could not be written after
// a successful unpack. The install counts as failed even though the bytes
// are on disk; the next run wipes the directory and retries.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("write install marker %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }
