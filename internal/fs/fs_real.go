package fs

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// realFS reads from the OS file system with an LRU cache of file contents.
// A cached entry is only reused while the file's size and modification time
// are unchanged, so a stale read after an edit costs one os.Stat, not a
// wrong result.
type realFS struct {
	cache *lru.Cache[string, realEntry]
}

type realEntry struct {
	contents string
	modTime  time.Time
	size     int64
}

const defaultContentCacheSize = 4096

func RealFS() (FS, error) {
	cache, err := lru.New[string, realEntry](defaultContentCacheSize)
	if err != nil {
		return nil, err
	}
	return &realFS{cache: cache}, nil
}

func (f *realFS) ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}

	if entry, ok := f.cache.Get(path); ok {
		if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			return entry.contents, nil
		}
	}

	buffer, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	contents := string(buffer)
	f.cache.Add(path, realEntry{contents: contents, modTime: info.ModTime(), size: info.Size()})
	return contents, nil
}

func (f *realFS) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (f *realFS) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
