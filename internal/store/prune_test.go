package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/store/memory"
)

func TestPruneBefore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_ = s.Set(ctx, store.K("analytics_by_date", base.Add(time.Duration(i)*time.Hour), "id"), []byte("v"))
	}

	removed, err := store.Prune(ctx, s, store.K("analytics_by_date"), store.Before(1, base.Add(4*time.Hour)), nil)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 4 {
		t.Errorf("Prune() removed %d, want 4", removed)
	}
	if s.Len() != 6 {
		t.Errorf("store holds %d keys, want 6", s.Len())
	}
}

func TestPruneKeepAndRemove(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = s.Set(ctx, store.K("x", id), []byte(id))
	}

	removed, err := store.Prune(ctx, s, store.K("x"), func(e store.Entry) store.PruneAction {
		if string(e.Value) == "b" || string(e.Value) == "d" {
			return store.Remove
		}
		return store.Keep
	}, nil)
	if err != nil || removed != 2 {
		t.Fatalf("Prune() = %d, %v", removed, err)
	}
	if _, err := s.Get(ctx, store.K("x", "c")); err != nil {
		t.Errorf("kept key missing: %v", err)
	}
	if _, err := s.Get(ctx, store.K("x", "d")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("removed key still present: %v", err)
	}
}
