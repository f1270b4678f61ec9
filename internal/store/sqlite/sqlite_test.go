package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
	"github.com/MrSnakeDoc/ministry/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), ":memory:", logger.NewNop())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ministry.db")

	s, err := Open(ctx, path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(ctx, store.K("settings", "theme"), []byte(`{"accent":"gold"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, path, logger.NewNop())
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, store.K("settings", "theme"))
	if err != nil || string(got) != `{"accent":"gold"}` {
		t.Fatalf("Get() after reopen = %q, %v", got, err)
	}
}
