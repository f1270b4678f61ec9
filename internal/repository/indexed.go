package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

// index is one secondary index. key returns the index key for a record and
// whether the record belongs to the index at all.
type index[T any] struct {
	name string
	key  func(*T) (store.Key, bool)
}

// indexed keeps a primary record at (entity, id) plus every secondary index
// holding a copy of the same bytes.
type indexed[T any] struct {
	st      store.Store
	entity  string
	id      func(*T) string
	indexes []index[T]
}

func (r *indexed[T]) primary(id string) store.Key {
	return store.K(r.entity, id)
}

func (r *indexed[T]) get(ctx context.Context, id string) (*T, error) {
	return r.lookup(ctx, r.primary(id))
}

// lookup decodes the record stored at any key of this entity, primary or index.
func (r *indexed[T]) lookup(ctx context.Context, key store.Key) (*T, error) {
	data, err := r.st.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.decode(data)
}

func (r *indexed[T]) decode(data []byte) (*T, error) {
	var v T
	if err := jsonx.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", r.entity, err)
	}
	return &v, nil
}

// changes returns the ops moving the stored state from prev to next.
// A nil prev is a create, a nil next a delete.
func (r *indexed[T]) changes(prev, next *T) ([]store.Op, error) {
	var (
		data []byte
		err  error
	)
	if next != nil {
		if data, err = jsonx.Marshal(next); err != nil {
			return nil, fmt.Errorf("failed to encode %s record: %w", r.entity, err)
		}
	}

	ops := make([]store.Op, 0, 1+2*len(r.indexes))
	for _, idx := range r.indexes {
		var (
			oldKey, newKey store.Key
			oldIn, newIn   bool
		)
		if prev != nil {
			oldKey, oldIn = idx.key(prev)
		}
		if next != nil {
			newKey, newIn = idx.key(next)
		}
		if oldIn && (!newIn || !oldKey.Equal(newKey)) {
			ops = append(ops, store.Del(oldKey))
		}
		if newIn {
			// rewritten even when the key is unchanged so the copy tracks the primary
			ops = append(ops, store.Put(newKey, data))
		}
	}

	switch {
	case next != nil:
		ops = append(ops, store.Put(r.primary(r.id(next)), data))
	case prev != nil:
		ops = append(ops, store.Del(r.primary(r.id(prev))))
	}
	return ops, nil
}

// save writes next and moves its indexes in one commit.
func (r *indexed[T]) save(ctx context.Context, prev, next *T) error {
	ops, err := r.changes(prev, next)
	if err != nil {
		return err
	}
	if err := r.st.Commit(ctx, ops...); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", r.entity, r.id(next), err)
	}
	return nil
}

// remove deletes the record and every index entry it currently holds.
func (r *indexed[T]) remove(ctx context.Context, id string) (*T, error) {
	prev, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	ops, err := r.changes(prev, nil)
	if err != nil {
		return nil, err
	}
	if err := r.st.Commit(ctx, ops...); err != nil {
		return nil, fmt.Errorf("failed to delete %s %s: %w", r.entity, id, err)
	}
	return prev, nil
}

// list streams the records stored under an index prefix.
func (r *indexed[T]) list(ctx context.Context, prefix store.Key, opts store.ScanOptions) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for e, err := range r.st.Scan(ctx, prefix, opts) {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := r.decode(e.Value)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Collect drains a record sequence into a slice.
func Collect[T any](seq iter.Seq2[*T, error]) ([]*T, error) {
	out := make([]*T, 0)
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// newest scans an index most-recent-first.
func newest(limit int) store.ScanOptions {
	return store.ScanOptions{Reverse: true, Limit: limit}
}
