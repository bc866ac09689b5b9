package fs

import "errors"

// The filesystem is accessed through this interface so that tests can use an
// in-memory implementation and so that the real implementation can cache
// reads. Paths are always absolute, slash-separated.
type FS interface {
	// ReadFile returns the contents of the file at the given path
	ReadFile(path string) (string, error)

	// FileExists reports whether a regular file exists at the given path
	FileExists(path string) bool

	// DirExists reports whether a directory exists at the given path
	DirExists(path string) bool
}

// WritableFS is implemented by the mock filesystem so that tests can
// simulate edits between build generations.
type WritableFS interface {
	FS
	WriteFile(path string, contents string)
}

var ErrNotFound = errors.New("file not found")
