package repository

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
)

// stepClock advances by one minute on every read.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestRepos(t *testing.T) (*Repositories, *memory.Store) {
	t.Helper()
	st := memory.New()
	clock := &stepClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	n := 0
	repos := New(st,
		WithClock(clock.Now),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%04d", n)
		}),
	)
	return repos, st
}

// indexEntries returns every value stored under an index prefix.
func indexEntries(t *testing.T, st store.Store, name string) []store.Entry {
	t.Helper()
	var out []store.Entry
	for e, err := range st.Scan(context.Background(), store.K(name), store.ScanOptions{}) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

// requireIndexed asserts that the index holds exactly one entry for the
// record and that it is byte-identical to the primary value.
func requireIndexed(t *testing.T, st store.Store, index string, primary store.Key) {
	t.Helper()
	want, err := st.Get(context.Background(), primary)
	require.NoError(t, err)

	id := primary[len(primary)-1].(string)
	matches := 0
	for _, e := range indexEntries(t, st, index) {
		segs := e.Segments()
		if segs[len(segs)-1] != id && !bytes.Contains(e.Value, []byte(`"id":"`+id+`"`)) {
			continue
		}
		matches++
		require.Equal(t, string(want), string(e.Value), "index %s holds a stale copy", index)
	}
	require.Equal(t, 1, matches, "index %s should hold exactly one entry for %s", index, id)
}

func requireNotIndexed(t *testing.T, st store.Store, index, id string) {
	t.Helper()
	for _, e := range indexEntries(t, st, index) {
		require.NotContains(t, string(e.Value), `"id":"`+id+`"`, "index %s still references %s", index, id)
	}
}

func ptr[T any](v T) *T { return &v }
