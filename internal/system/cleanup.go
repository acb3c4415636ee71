package system

import (
	"time"

	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Time) {
	s.world.FlushDestroyed()
}
