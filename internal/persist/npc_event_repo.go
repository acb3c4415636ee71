package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// NpcEvent kinds.
const (
	NpcEventDespawn = "despawn"
	NpcEventRespawn = "respawn"
)

// NpcEvent is one NPC lifecycle row (despawn or respawn).
type NpcEvent struct {
	Kind     string
	EntityID uint64
	NpcID    int32
	MapID    int16
	X, Y     int32
	At       time.Time
}

type NpcEventRepo struct {
	db *DB
}

func NewNpcEventRepo(db *DB) *NpcEventRepo {
	return &NpcEventRepo{db: db}
}

var npcEventColumns = []string{"kind", "entity_id", "npc_id", "map_id", "x", "y", "occurred_at"}

// InsertNpcEvents bulk-writes rows with COPY. Returns the number of rows copied.
func (r *NpcEventRepo) InsertNpcEvents(ctx context.Context, events []NpcEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	n, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"npc_events"},
		npcEventColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{e.Kind, int64(e.EntityID), e.NpcID, e.MapID, e.X, e.Y, e.At}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy npc events: %w", err)
	}
	return n, nil
}

// CountByNpc returns how many lifecycle rows of kind exist for a template.
func (r *NpcEventRepo) CountByNpc(ctx context.Context, npcID int32, kind string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM npc_events WHERE npc_id = $1 AND kind = $2`,
		npcID, kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count npc events: %w", err)
	}
	return n, nil
}
