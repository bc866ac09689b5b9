package cache

// This is a cache of memoized task results keyed by (operation, normalized
// argument). The idea is that content reads, reference extraction, and
// resolution are pure functions of immutable inputs, so their results can be
// shared between all concurrent callers and reused across builds. This only
// works if:
//
//   - The values stored in the cache must be considered immutable. There is
//     no way to enforce this in Go, but please be disciplined about this.
//     Results are handed to every caller of the same key. Anything that must
//     be mutated after the fact must be mutated on a copy.
//
//   - A task must declare every input path it read. Invalidating a path
//     removes the entries that declared it and, transitively, the entries
//     that declared those entries; an undeclared input means stale reuse.
//
// Two concurrent requests for the same key execute the task at most once;
// the late caller blocks until the first execution completes and observes
// the identical result. Failed executions are reported to every waiting
// caller but never stored, so the next request retries.

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// A Key identifies one memoized task: the operation name plus its normalized
// argument. Keys are cheap to compare and safe to use as map keys.
type Key struct {
	Op  string
	Arg string
}

func (k Key) id() string {
	return k.Op + "\x00" + k.Arg
}

// String returns the key's input id, used when one entry declares a
// dependency on another entry.
func (k Key) String() string {
	return k.id()
}

type entry struct {
	value any
	deps  []string
}

type TaskCache struct {
	mutex   sync.Mutex
	entries map[Key]*entry

	// Reverse dependency index: input id -> keys that declared it. Input ids
	// are file paths or other entries' key ids.
	dependents map[string]map[Key]struct{}

	// Bumped by Invalidate. An execution that started before an invalidation
	// is discarded instead of stored; this is deliberately conservative (any
	// invalidation discards any in-flight result) because the task's inputs
	// are unknown until it finishes.
	epoch uint64

	group singleflight.Group
}

func New() *TaskCache {
	return &TaskCache{
		entries:    make(map[Key]*entry),
		dependents: make(map[string]map[Key]struct{}),
	}
}

// A TaskFunc computes a value and reports the input ids it read.
type TaskFunc[T any] func(ctx context.Context) (T, []string, error)

// Get returns the memoized result for the key, computing it with fn if
// needed. Concurrent callers with the same key share one execution.
func Get[T any](ctx context.Context, c *TaskCache, key Key, fn TaskFunc[T]) (T, error) {
	c.mutex.Lock()
	if e, ok := c.entries[key]; ok {
		c.mutex.Unlock()
		return e.value.(T), nil
	}
	startEpoch := c.epoch
	c.mutex.Unlock()

	value, err, _ := c.group.Do(key.id(), func() (any, error) {
		value, deps, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.mutex.Lock()
		defer c.mutex.Unlock()
		if c.epoch == startEpoch {
			c.store(key, value, deps)
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

func (c *TaskCache) store(key Key, value any, deps []string) {
	c.entries[key] = &entry{value: value, deps: deps}
	for _, dep := range deps {
		keys, ok := c.dependents[dep]
		if !ok {
			keys = make(map[Key]struct{})
			c.dependents[dep] = keys
		}
		keys[key] = struct{}{}
	}
}

// Invalidate removes every entry that depends on the path, directly or
// transitively. Unrelated entries are untouched; removed values are replaced
// on the next request, never edited in place.
func (c *TaskCache) Invalidate(path string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.epoch++

	queue := []string{path}
	for len(queue) > 0 {
		input := queue[0]
		queue = queue[1:]

		for key := range c.dependents[input] {
			e, ok := c.entries[key]
			if !ok {
				continue
			}
			delete(c.entries, key)
			for _, dep := range e.deps {
				delete(c.dependents[dep], key)
			}
			queue = append(queue, key.id())
		}
		delete(c.dependents, input)
	}
}

// Len reports the number of completed entries, for diagnostics.
func (c *TaskCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}
