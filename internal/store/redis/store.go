// Package redis implements store.Store on Redis.
//
// Values live in plain string keys; key order lives in one sorted set whose
// members all carry score 0, so ZRANGEBYLEX walks them in byte order.
package redis

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	// DefaultKeyPrefix namespaces every key this store writes.
	DefaultKeyPrefix = "ministry:"

	valueSegment = "kv:"
	orderSegment = "keys"
)

// Store handles Redis operations for the ordered key space.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// NewStore wraps a connected client. An empty prefix selects DefaultKeyPrefix.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// ValueKey returns the Redis key holding the value of an encoded store key.
func (s *Store) ValueKey(encoded string) string {
	return s.prefix + valueSegment + encoded
}

// OrderKey returns the sorted set that keeps every encoded key in order.
func (s *Store) OrderKey() string {
	return s.prefix + orderSegment
}

func (s *Store) Get(ctx context.Context, key store.Key) ([]byte, error) {
	data, err := s.client.Get(ctx, s.ValueKey(key.Encode())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key store.Key, value []byte) error {
	return s.Commit(ctx, store.Put(key, value))
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	return s.Commit(ctx, store.Del(key))
}

// Commit wraps every op in MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, ops ...store.Op) error {
	if len(ops) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			enc := op.Key.Encode()
			switch op.Kind {
			case store.OpSet:
				pipe.Set(ctx, s.ValueKey(enc), op.Value, 0)
				pipe.ZAdd(ctx, s.OrderKey(), redis.Z{Score: 0, Member: enc})
			case store.OpDelete:
				pipe.Del(ctx, s.ValueKey(enc))
				pipe.ZRem(ctx, s.OrderKey(), enc)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit %d ops: %w", len(ops), err)
	}
	return nil
}

// Scan pages through the order set, then fetches each page's values with MGET.
// Members whose value vanished between the two calls are skipped.
func (s *Store) Scan(ctx context.Context, prefix store.Key, opts store.ScanOptions) iter.Seq2[store.Entry, error] {
	p := prefix.Prefix()
	return func(yield func(store.Entry, error) bool) {
		min, max := "-", "+"
		if p != "" {
			min, max = "["+p, "("+store.UpperBound(p)
		}

		emitted := 0
		for {
			rng := &redis.ZRangeBy{Min: min, Max: max, Count: store.DefaultPageSize}
			var (
				members []string
				err     error
			)
			if opts.Reverse {
				members, err = s.client.ZRevRangeByLex(ctx, s.OrderKey(), rng).Result()
			} else {
				members, err = s.client.ZRangeByLex(ctx, s.OrderKey(), rng).Result()
			}
			if err != nil {
				yield(store.Entry{}, fmt.Errorf("failed to scan %q: %w", p, err))
				return
			}
			if len(members) == 0 {
				return
			}

			valueKeys := make([]string, len(members))
			for i, m := range members {
				valueKeys[i] = s.ValueKey(m)
			}
			values, err := s.client.MGet(ctx, valueKeys...).Result()
			if err != nil {
				yield(store.Entry{}, fmt.Errorf("failed to load scan page: %w", err))
				return
			}

			for i, m := range members {
				v, ok := values[i].(string)
				if !ok {
					continue
				}
				if !yield(store.Entry{Key: m, Value: []byte(v)}, nil) {
					return
				}
				emitted++
				if opts.Limit > 0 && emitted >= opts.Limit {
					return
				}
			}

			last := members[len(members)-1]
			if opts.Reverse {
				max = "(" + last
			} else {
				min = "(" + last
			}
			if len(members) < store.DefaultPageSize {
				return
			}
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
