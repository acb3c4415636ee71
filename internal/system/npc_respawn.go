package system

import (
	"time"

	"github.com/l1jgo/npcai/internal/core/event"
	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/world"
	"go.uber.org/zap"
)

// NpcRespawnSystem brings despawned NPCs back.
// Flow: despawn state completes → NpcDespawned (dispatched next tick) →
// RespawnAt is armed → once due the spawner replaces the NPC's AI.
// NPCs that never respawn are removed from the world. Phase 3 (PostUpdate).
type NpcRespawnSystem struct {
	world   *world.State
	spawner *Spawner
	log     *zap.Logger
}

func NewNpcRespawnSystem(ws *world.State, spawner *Spawner, log *zap.Logger) *NpcRespawnSystem {
	s := &NpcRespawnSystem{world: ws, spawner: spawner, log: log}
	event.Subscribe(ws.Bus(), s.onDespawned)
	return s
}

func (s *NpcRespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *NpcRespawnSystem) onDespawned(ev event.NpcDespawned) {
	npc := s.world.GetNpc(ev.ID)
	if npc == nil || npc.Spawned() {
		return // already gone, or respawned before the event was dispatched
	}
	if npc.RespawnDelay < 0 {
		s.log.Debug("npc removed", zap.Int32("npc_id", npc.NpcID))
		s.world.RemoveNpc(npc.ID)
		return
	}
	npc.RespawnAt = ev.At.Add(npc.RespawnDelay)
}

func (s *NpcRespawnSystem) Update(now time.Time) {
	for _, npc := range s.world.NpcList() {
		if npc.Spawned() || npc.RespawnAt.IsZero() || now.Before(npc.RespawnAt) {
			continue
		}
		s.spawner.Respawn(npc, now)
	}
}
