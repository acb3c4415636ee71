package system

import (
	"context"
	"time"

	"github.com/l1jgo/npcai/internal/core/event"
	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/persist"
	"go.uber.org/zap"
)

// NpcEventWriter stores NPC lifecycle rows. Implemented by persist.NpcEventRepo.
type NpcEventWriter interface {
	InsertNpcEvents(ctx context.Context, events []persist.NpcEvent) (int64, error)
}

// PersistenceSystem buffers NPC despawn/respawn events and writes them in
// batches every interval ticks, or sooner once batchSize rows are pending.
// Phase 4 (Persist).
type PersistenceSystem struct {
	repo      NpcEventWriter
	log       *zap.Logger
	pending   []persist.NpcEvent
	tickCount int
	interval  int // flush every N ticks
	batchSize int
}

func NewPersistenceSystem(bus *event.Bus, repo NpcEventWriter, log *zap.Logger, intervalTicks, batchSize int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &PersistenceSystem{
		repo:      repo,
		log:       log,
		interval:  intervalTicks,
		batchSize: batchSize,
	}
	event.Subscribe(bus, func(ev event.NpcDespawned) {
		s.pending = append(s.pending, persist.NpcEvent{
			Kind: persist.NpcEventDespawn, EntityID: uint64(ev.ID), NpcID: ev.NpcID,
			MapID: ev.MapID, X: ev.X, Y: ev.Y, At: ev.At,
		})
	})
	event.Subscribe(bus, func(ev event.NpcRespawned) {
		s.pending = append(s.pending, persist.NpcEvent{
			Kind: persist.NpcEventRespawn, EntityID: uint64(ev.ID), NpcID: ev.NpcID,
			MapID: ev.MapID, X: ev.X, Y: ev.Y, At: ev.At,
		})
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Time) {
	s.tickCount++
	if s.tickCount < s.interval && (s.batchSize <= 0 || len(s.pending) < s.batchSize) {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes every buffered row immediately. Called on shutdown.
// Failed batches are logged and dropped; lifecycle rows are diagnostics.
func (s *PersistenceSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := s.repo.InsertNpcEvents(ctx, s.pending)
	if err != nil {
		s.log.Error("NPC 事件寫入失敗", zap.Error(err), zap.Int("rows", len(s.pending)))
	} else {
		s.log.Debug("npc events flushed", zap.Int64("rows", n))
	}
	s.pending = s.pending[:0]
}

// Pending returns the number of buffered rows.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }
