package world

import (
	"time"

	"github.com/l1jgo/npcai/internal/ai"
	"github.com/l1jgo/npcai/internal/core/ecs"
	"github.com/l1jgo/npcai/internal/core/event"
)

// Npc is a live NPC. It implements ai.Entity and owns its current AI; the
// AI may be replaced (respawn, GM reset) at any point on the game loop.
// Accessed only from the game loop goroutine, no locks.
type Npc struct {
	ID      ecs.EntityID
	NpcID   int32 // template ID
	Name    string
	Impl    string
	Level   int16
	X       int32
	Y       int32
	MapID   int16
	Heading int16
	HP      int32
	MaxHP   int32
	Agro    bool

	// Spawn data for respawning
	SpawnX       int32
	SpawnY       int32
	SpawnMapID   int16
	RespawnDelay time.Duration // < 0 = never respawn
	WanderRange  int32
	MoveSpeed    time.Duration // min time between steps, 0 = every tick

	// RespawnAt is set when the NPC despawns; zero while spawned.
	RespawnAt time.Time
	// Generation counts AI replacements (spawn = 1).
	Generation int

	status ai.Status
	anim   ai.Animation
	mask   ai.UpdateMask
	brain  *ai.AI
	world  *State
}

func (n *Npc) Status() ai.Status           { return n.status }
func (n *Npc) SetStatus(s ai.Status)       { n.status = s }
func (n *Npc) Animation() ai.Animation     { return n.anim }
func (n *Npc) SetAnimation(a ai.Animation) { n.anim = a }
func (n *Npc) UpdatePending() bool         { return n.mask != ai.UpdateNone }
func (n *Npc) SetUpdate(m ai.UpdateMask)   { n.mask |= m }
func (n *Npc) UpdateMask() ai.UpdateMask   { return n.mask }
func (n *Npc) AI() *ai.AI                  { return n.brain }

// SetAI replaces the NPC's AI. The previous instance is dropped; if it is
// mid-tick it will notice and skip synchronisation.
func (n *Npc) SetAI(a *ai.AI) {
	n.brain = a
	n.Generation++
}

// UpdateEntity publishes pending changes and clears the update mask.
func (n *Npc) UpdateEntity() {
	if n.mask == ai.UpdateNone {
		return
	}
	var at time.Time
	if n.brain != nil {
		at = n.brain.LastTick()
	}
	if n.world != nil {
		bus := n.world.bus
		event.Emit(bus, event.NpcSynced{
			ID:        n.ID,
			NpcID:     n.NpcID,
			X:         n.X,
			Y:         n.Y,
			MapID:     n.MapID,
			Status:    uint8(n.status),
			Animation: uint8(n.anim),
			Mask:      uint8(n.mask),
			At:        at,
		})
		if n.mask&ai.UpdateDespawn != 0 && n.status == ai.StatusDisappear {
			n.world.entity.Vacate(n.MapID, n.X, n.Y, n.ID)
			event.Emit(bus, event.NpcDespawned{
				ID: n.ID, NpcID: n.NpcID, X: n.X, Y: n.Y, MapID: n.MapID, At: at,
			})
		}
	}
	n.mask = ai.UpdateNone
}

// Position implements pathfind.Mover.
func (n *Npc) Position() (int32, int32) { return n.X, n.Y }

// CanStep reports whether the NPC may step onto (x, y).
func (n *Npc) CanStep(x, y int32) bool {
	if n.world == nil {
		return true
	}
	return n.world.IsPassable(n.MapID, x, y, n.ID)
}

// StepTo moves the NPC one tile, keeping the occupancy grid in sync.
func (n *Npc) StepTo(x, y int32, heading int16) {
	if n.world != nil {
		n.world.entity.Move(n.MapID, n.X, n.Y, x, y, n.ID)
	}
	n.X, n.Y, n.Heading = x, y, heading
	n.mask |= ai.UpdatePos
}

// Spawned reports whether the NPC is visible in the world.
func (n *Npc) Spawned() bool { return n.status != ai.StatusDisappear }
