package persist

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGooseLoggerWritesDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := gooseLogger{log: zap.New(core).Sugar()}

	l.Printf("OK   %s (%d ms)\n", "00001_npc_events.sql", 12)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("level = %v, want debug", entries[0].Level)
	}
	if want := "OK   00001_npc_events.sql (12 ms)"; entries[0].Message != want {
		t.Errorf("message = %q, want %q", entries[0].Message, want)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	before, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	after, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if after != before {
		t.Fatalf("version changed on rerun: %d -> %d", before, after)
	}
	if st := db.Stats(); st.Total < 1 {
		t.Fatalf("pool total = %d after migrating", st.Total)
	}
}
