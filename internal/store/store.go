// Package store defines the ordered key-value contract every persistence
// component is written against, and the key tuple encoding shared by all
// backends (memory, redis, sqlite).
package store

import (
	"context"
	"errors"
	"iter"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// DefaultPageSize is the number of entries a backend loads per scan round trip.
const DefaultPageSize = 128

// Entry is one key/value pair produced by Scan. Key is the encoded form.
type Entry struct {
	Key   string
	Value []byte
}

// Segments decodes the entry key into its string segments.
func (e Entry) Segments() []string { return ParseKey(e.Key) }

// StoreKey rebuilds a Key addressing the same entry. Numeric segments come
// back as their padded digits, which encode identically.
func (e Entry) StoreKey() Key {
	segs := ParseKey(e.Key)
	k := make(Key, len(segs))
	for i, s := range segs {
		k[i] = s
	}
	return k
}

// ScanOptions tunes a prefix scan.
type ScanOptions struct {
	Reverse bool // descending key order
	Limit   int  // stop after Limit entries, 0 = unlimited
}

// OpKind distinguishes writes inside a Commit.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is a single write applied by Commit.
type Op struct {
	Kind  OpKind
	Key   Key
	Value []byte
}

// Put builds a set operation.
func Put(key Key, value []byte) Op { return Op{Kind: OpSet, Key: key, Value: value} }

// Del builds a delete operation.
func Del(key Key) Op { return Op{Kind: OpDelete, Key: key} }

// Store is an ordered key-value store.
//
// Scan is lazy: backends load one page at a time and stop as soon as the
// consumer breaks. Every call starts a fresh scan. Writes made by the consumer
// while iterating are allowed.
//
// Commit applies all ops or none of them, in order.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	Scan(ctx context.Context, prefix Key, opts ScanOptions) iter.Seq2[Entry, error]
	Commit(ctx context.Context, ops ...Op) error
	Ping(ctx context.Context) error
	Close() error
}

// UpperBound returns the smallest string greater than every string carrying
// the given encoded prefix. Encoded keys never contain 0xff.
func UpperBound(prefix string) string {
	return prefix + "\xff"
}

// HasPrefix reports whether an encoded key belongs to the encoded prefix.
func HasPrefix(encoded, prefix string) bool {
	return len(encoded) >= len(prefix) && encoded[:len(prefix)] == prefix
}
