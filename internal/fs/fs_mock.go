package fs

// This is a mock implementation of the "fs" package for use with tests. It
// does not actually read from the file system. Instead, it reads from a
// pre-specified map of file paths to files, and derives the directories from
// the file paths.

import (
	"fmt"
	"path"
	"sync"
)

type mockFS struct {
	mutex sync.RWMutex
	files map[string]string
	dirs  map[string]bool
}

func MockFS(input map[string]string) FS {
	m := &mockFS{
		files: make(map[string]string, len(input)),
		dirs:  make(map[string]bool),
	}
	for k, v := range input {
		m.addFile(k, v)
	}
	return m
}

func (m *mockFS) addFile(p string, contents string) {
	m.files[p] = contents

	// Build the directory map
	for {
		dir := path.Dir(p)
		if dir == p {
			break
		}
		m.dirs[dir] = true
		p = dir
	}
}

func (m *mockFS) ReadFile(p string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	contents, ok := m.files[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return contents, nil
}

func (m *mockFS) FileExists(p string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.files[p]
	return ok
}

func (m *mockFS) DirExists(p string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.dirs[p]
}

// WriteFile adds or replaces a file after construction. Tests use this to
// simulate edits between build generations.
func (m *mockFS) WriteFile(p string, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.addFile(p, contents)
}
