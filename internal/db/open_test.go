package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bizwars/internal/game"
)

func TestOpenSQLiteDriverPurges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "worker.db")
	store, closeFn, err := Open(ctx, DriverSQLite, "", path, WorkerPoolOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	g, err := game.NewGame(game.NewGameInput{OwnerID: "done", CompanyName: "Acme"}, game.DefaultPresets())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.IsGameOver = true
	g.Outcome = game.OutcomeLoseTime
	g.UpdatedAt = time.Now().Add(-72 * time.Hour)
	if err := store.Replace(ctx, g); err != nil {
		t.Fatalf("replace: %v", err)
	}

	svc := game.NewService(store, nil, nil, nil)
	n, err := svc.PurgeFinished(ctx, 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("purge removed %d, err %v", n, err)
	}
	if _, err := store.Get(ctx, "done"); err == nil {
		t.Fatalf("finished game should be gone")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, _, err := Open(context.Background(), "mongo", "", "", PoolOptions{}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
