package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentCallersShareOneExecution(t *testing.T) {
	c := New()
	key := Key{Op: "resolve", Arg: "./foo\x00/src"}

	var executions atomic.Int32
	var wg sync.WaitGroup
	results := make([]string, 16)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := Get(context.Background(), c, key, func(context.Context) (string, []string, error) {
				executions.Add(1)
				time.Sleep(10 * time.Millisecond)
				return "/src/foo.js", []string{"/src/foo.js"}, nil
			})
			require.NoError(t, err)
			results[i] = value
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load())
	for _, value := range results {
		assert.Equal(t, "/src/foo.js", value)
	}
}

func TestCompletedResultIsReused(t *testing.T) {
	c := New()
	key := Key{Op: "content", Arg: "/a.js"}

	var executions int
	fn := func(context.Context) (int, []string, error) {
		executions++
		return 42, []string{"/a.js"}, nil
	}

	for i := 0; i < 3; i++ {
		value, err := Get(context.Background(), c, key, fn)
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	}
	assert.Equal(t, 1, executions)
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New()
	key := Key{Op: "content", Arg: "/missing.js"}

	calls := 0
	_, err := Get(context.Background(), c, key, func(context.Context) (string, []string, error) {
		calls++
		return "", nil, errors.New("file not found")
	})
	assert.Error(t, err)

	value, err := Get(context.Background(), c, key, func(context.Context) (string, []string, error) {
		calls++
		return "found now", nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "found now", value)
	assert.Equal(t, 2, calls)
}

func TestInvalidationIsTransitive(t *testing.T) {
	c := New()
	ctx := context.Background()

	contentKey := Key{Op: "content", Arg: "/a.js"}
	referencesKey := Key{Op: "references", Arg: "/a.js"}
	unrelatedKey := Key{Op: "content", Arg: "/b.js"}

	contentRuns, referencesRuns, unrelatedRuns := 0, 0, 0

	getAll := func() {
		_, err := Get(ctx, c, contentKey, func(context.Context) (string, []string, error) {
			contentRuns++
			return "content", []string{"/a.js"}, nil
		})
		require.NoError(t, err)

		// The reference computation depends on the content entry, not on the
		// file directly
		_, err = Get(ctx, c, referencesKey, func(context.Context) ([]string, []string, error) {
			referencesRuns++
			return []string{"./dep.js"}, []string{contentKey.String()}, nil
		})
		require.NoError(t, err)

		_, err = Get(ctx, c, unrelatedKey, func(context.Context) (string, []string, error) {
			unrelatedRuns++
			return "other", []string{"/b.js"}, nil
		})
		require.NoError(t, err)
	}

	getAll()
	assert.Equal(t, []int{1, 1, 1}, []int{contentRuns, referencesRuns, unrelatedRuns})

	// Editing /a.js invalidates its content and, transitively, the reference
	// computation that read that content, but not the unrelated file
	c.Invalidate("/a.js")
	getAll()
	assert.Equal(t, []int{2, 2, 1}, []int{contentRuns, referencesRuns, unrelatedRuns})
}

func TestInFlightResultIsDiscardedOnInvalidation(t *testing.T) {
	c := New()
	key := Key{Op: "content", Arg: "/a.js"}

	started := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := Get(context.Background(), c, key, func(context.Context) (string, []string, error) {
			close(started)
			<-proceed
			return "stale", []string{"/a.js"}, nil
		})
		assert.NoError(t, err)
	}()

	<-started
	c.Invalidate("/a.js")
	close(proceed)
	<-done

	// The superseded result was returned to its caller but never stored
	value, err := Get(context.Background(), c, key, func(context.Context) (string, []string, error) {
		return "fresh", []string{"/a.js"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
}
