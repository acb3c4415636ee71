package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/l1jgo/npcai/internal/config"
	"go.uber.org/zap"
)

// Runs against a real PostgreSQL when NPCAI_TEST_DSN is set.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("NPCAI_TEST_DSN")
	if dsn == "" {
		t.Skip("NPCAI_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		Enabled:         true,
		DSN:             dsn,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	version, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if version < 1 {
		t.Fatalf("schema version = %d, want >= 1", version)
	}
	return db
}

func TestInsertNpcEvents(t *testing.T) {
	db := openTestDB(t)
	repo := NewNpcEventRepo(db)
	ctx := context.Background()

	npcID := int32(time.Now().UnixNano() % 1_000_000_000)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := repo.InsertNpcEvents(ctx, []NpcEvent{
		{Kind: NpcEventDespawn, EntityID: 1, NpcID: npcID, MapID: 4, X: 10, Y: 10, At: at},
		{Kind: NpcEventRespawn, EntityID: 1, NpcID: npcID, MapID: 4, X: 10, Y: 11, At: at.Add(30 * time.Second)},
		{Kind: NpcEventDespawn, EntityID: 1, NpcID: npcID, MapID: 4, X: 12, Y: 11, At: at.Add(time.Minute)},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 3 {
		t.Fatalf("copied %d rows, want 3", n)
	}
	got, err := repo.CountByNpc(ctx, npcID, NpcEventDespawn)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Fatalf("despawn rows = %d, want 2", got)
	}
}

func TestInsertNoEvents(t *testing.T) {
	repo := NewNpcEventRepo(nil)
	n, err := repo.InsertNpcEvents(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("empty insert = %d, %v", n, err)
	}
}
