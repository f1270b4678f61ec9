// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against a backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(context.Background(), store.K("nope", "x")); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set get delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		key := store.K("links", "abc")

		if err := s.Set(ctx, key, []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil || string(got) != `{"a":1}` {
			t.Fatalf("Get() = %q, %v", got, err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("second Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get() after delete error = %v", err)
		}
	})

	t.Run("scan order and prefix isolation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		for i := 0; i < 300; i++ {
			k := store.K("events", base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("id-%03d", i))
			if err := s.Set(ctx, k, []byte(fmt.Sprint(i))); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
		}
		_ = s.Set(ctx, store.K("events_other", "x"), []byte("noise"))
		_ = s.Set(ctx, store.K("eventz", "x"), []byte("noise"))

		var got []string
		for e, err := range s.Scan(ctx, store.K("events"), store.ScanOptions{}) {
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			got = append(got, string(e.Value))
		}
		if len(got) != 300 {
			t.Fatalf("Scan() returned %d entries, want 300", len(got))
		}
		for i, v := range got {
			if v != fmt.Sprint(i) {
				t.Fatalf("entry %d = %s, scan is not chronological", i, v)
			}
		}

		var rev []string
		for e, err := range s.Scan(ctx, store.K("events"), store.ScanOptions{Reverse: true, Limit: 5}) {
			if err != nil {
				t.Fatalf("reverse Scan() error = %v", err)
			}
			rev = append(rev, string(e.Value))
		}
		want := []string{"299", "298", "297", "296", "295"}
		if fmt.Sprint(rev) != fmt.Sprint(want) {
			t.Fatalf("reverse Scan() = %v, want %v", rev, want)
		}
	})

	t.Run("reverse scan crosses pages", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		const n = 300
		for i := 0; i < n; i++ {
			if err := s.Set(ctx, store.K("rev", i), []byte(fmt.Sprint(i))); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
		}
		_ = s.Set(ctx, store.K("revz", "x"), []byte("noise"))

		want := n - 1
		for e, err := range s.Scan(ctx, store.K("rev"), store.ScanOptions{Reverse: true}) {
			if err != nil {
				t.Fatalf("reverse Scan() error = %v", err)
			}
			if string(e.Value) != fmt.Sprint(want) {
				t.Fatalf("reverse Scan() yielded %s, want %d", e.Value, want)
			}
			want--
		}
		if want != -1 {
			t.Fatalf("reverse Scan() stopped before %d", want)
		}

		want = n - 1
		for e, err := range s.Scan(ctx, store.K("rev"), store.ScanOptions{Reverse: true}) {
			if err != nil {
				t.Fatalf("reverse Scan() error = %v", err)
			}
			if string(e.Value) != fmt.Sprint(want) {
				t.Fatalf("reverse Scan() with deletes yielded %s, want %d", e.Value, want)
			}
			if err := s.Delete(ctx, e.StoreKey()); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			want--
		}
		if want != -1 {
			t.Fatalf("reverse Scan() with deletes stopped before %d", want)
		}
		for range s.Scan(ctx, store.K("rev"), store.ScanOptions{Reverse: true}) {
			t.Fatal("reverse scan after deleting everything should be empty")
		}
		if _, err := s.Get(ctx, store.K("revz", "x")); err != nil {
			t.Fatalf("neighbouring prefix was touched: %v", err)
		}
	})

	t.Run("scan is restartable and tolerates deletes", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for i := 0; i < 260; i++ {
			_ = s.Set(ctx, store.K("tmp", i), []byte("v"))
		}
		deleted := 0
		for e, err := range s.Scan(ctx, store.K("tmp"), store.ScanOptions{}) {
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if err := s.Delete(ctx, e.StoreKey()); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			deleted++
		}
		if deleted != 260 {
			t.Fatalf("deleted %d keys while scanning, want 260", deleted)
		}
		for range s.Scan(ctx, store.K("tmp"), store.ScanOptions{}) {
			t.Fatal("second scan should be empty")
		}
	})

	t.Run("commit applies every op", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_ = s.Set(ctx, store.K("idx", "old"), []byte("x"))

		err := s.Commit(ctx,
			store.Put(store.K("rec", "1"), []byte("r")),
			store.Del(store.K("idx", "old")),
			store.Put(store.K("idx", "new"), []byte("r")),
		)
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if _, err := s.Get(ctx, store.K("idx", "old")); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("old index entry still present: %v", err)
		}
		if v, err := s.Get(ctx, store.K("idx", "new")); err != nil || string(v) != "r" {
			t.Errorf("new index entry = %q, %v", v, err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Fatalf("Ping() error = %v", err)
		}
	})
}
