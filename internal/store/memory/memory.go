// Package memory is an in-process ordered store. It backs tests and
// single-node development runs; nothing survives a restart.
package memory

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/ministry/internal/store"
)

// Store keeps encoded keys in a sorted slice next to a value map.
type Store struct {
	mu     sync.RWMutex
	keys   []string          // sorted encoded keys
	values map[string][]byte // encoded key -> value
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		values: make(map[string][]byte),
	}
}

func (s *Store) Get(ctx context.Context, key store.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key.Encode()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(v), nil
}

func (s *Store) Set(ctx context.Context, key store.Key, value []byte) error {
	return s.Commit(ctx, store.Put(key, value))
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	return s.Commit(ctx, store.Del(key))
}

// Commit applies ops under a single write lock.
func (s *Store) Commit(ctx context.Context, ops ...store.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		enc := op.Key.Encode()
		switch op.Kind {
		case store.OpSet:
			if _, exists := s.values[enc]; !exists {
				s.insertKeyLocked(enc)
			}
			s.values[enc] = clone(op.Value)
		case store.OpDelete:
			if _, exists := s.values[enc]; exists {
				delete(s.values, enc)
				s.removeKeyLocked(enc)
			}
		}
	}
	return nil
}

// Scan walks a snapshot of the matching key range one page at a time.
func (s *Store) Scan(ctx context.Context, prefix store.Key, opts store.ScanOptions) iter.Seq2[store.Entry, error] {
	p := prefix.Prefix()
	return func(yield func(store.Entry, error) bool) {
		emitted := 0
		cursor := ""
		first := true
		for {
			if err := ctx.Err(); err != nil {
				yield(store.Entry{}, err)
				return
			}
			page := s.page(p, cursor, first, opts.Reverse, store.DefaultPageSize)
			if len(page) == 0 {
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				emitted++
				if opts.Limit > 0 && emitted >= opts.Limit {
					return
				}
			}
			cursor = page[len(page)-1].Key
			first = false
		}
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// page copies up to size entries strictly after cursor (or from the range
// edge on the first call).
func (s *Store) page(prefix, cursor string, first, reverse bool, size int) []store.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := sort.SearchStrings(s.keys, prefix)
	hi := len(s.keys)
	if prefix != "" {
		hi = sort.SearchStrings(s.keys, store.UpperBound(prefix))
	}

	out := make([]store.Entry, 0, size)
	if !reverse {
		start := lo
		if !first {
			start = sort.Search(len(s.keys), func(i int) bool { return s.keys[i] > cursor })
		}
		for i := start; i < hi && len(out) < size; i++ {
			out = append(out, store.Entry{Key: s.keys[i], Value: clone(s.values[s.keys[i]])})
		}
		return out
	}

	end := hi - 1
	if !first {
		end = sort.SearchStrings(s.keys, cursor) - 1
	}
	for i := end; i >= lo && len(out) < size; i-- {
		out = append(out, store.Entry{Key: s.keys[i], Value: clone(s.values[s.keys[i]])})
	}
	return out
}

func (s *Store) insertKeyLocked(enc string) {
	i := sort.SearchStrings(s.keys, enc)
	s.keys = append(s.keys, "")
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = enc
}

func (s *Store) removeKeyLocked(enc string) {
	i := sort.SearchStrings(s.keys, enc)
	if i < len(s.keys) && s.keys[i] == enc {
		s.keys = append(s.keys[:i], s.keys[i+1:]...)
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
