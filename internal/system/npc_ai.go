package system

import (
	"time"

	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/world"
)

// NpcAISystem ticks every NPC's current AI once per frame with the frame
// time. Despawned NPCs keep ticking so queued actions and states still
// drain; their controllers stand down on their own. Phase 2 (Update).
type NpcAISystem struct {
	world *world.State
}

func NewNpcAISystem(ws *world.State) *NpcAISystem {
	return &NpcAISystem{world: ws}
}

func (s *NpcAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NpcAISystem) Update(now time.Time) {
	for _, npc := range s.world.NpcList() {
		// Fetched per NPC: an earlier NPC's tick may have replaced this one's AI.
		if brain := npc.AI(); brain != nil {
			brain.Tick(now)
		}
	}
}
