package world

import (
	"sort"

	"github.com/l1jgo/npcai/internal/core/ecs"
	"github.com/l1jgo/npcai/internal/core/event"
	"github.com/l1jgo/npcai/internal/data"
)

// State holds every live NPC plus the occupancy grid.
// Accessed only from the game loop goroutine, no locks.
type State struct {
	ecs    *ecs.World
	npcs   *ecs.PtrComponentStore[Npc]
	entity *EntityGrid
	maps   *data.MapDataTable
	bus    *event.Bus

	list  []*Npc // stable tick order, rebuilt on add/remove
	dirty bool
}

// NewState creates an empty world. maps may be nil (unbounded maps).
func NewState(maps *data.MapDataTable, bus *event.Bus) *State {
	w := ecs.NewWorld()
	npcs := ecs.NewPtrComponentStore[Npc]()
	w.Register(npcs)
	return &State{
		ecs:    w,
		npcs:   npcs,
		entity: newEntityGrid(),
		maps:   maps,
		bus:    bus,
	}
}

func (s *State) Bus() *event.Bus { return s.bus }

// AddNpc assigns the NPC an entity ID and places it on its tile.
func (s *State) AddNpc(n *Npc) ecs.EntityID {
	n.ID = s.ecs.CreateEntity()
	n.world = s
	s.npcs.Set(n.ID, n)
	s.entity.Occupy(n.MapID, n.X, n.Y, n.ID)
	s.dirty = true
	return n.ID
}

// GetNpc returns a live NPC, or nil for unknown or destroyed IDs.
func (s *State) GetNpc(id ecs.EntityID) *Npc {
	if !s.ecs.Alive(id) {
		return nil
	}
	n, _ := s.npcs.Get(id)
	return n
}

// RemoveNpc frees the NPC's tile and queues it for end-of-tick destruction.
func (s *State) RemoveNpc(id ecs.EntityID) {
	n := s.GetNpc(id)
	if n == nil {
		return
	}
	s.entity.Vacate(n.MapID, n.X, n.Y, n.ID)
	s.ecs.MarkForDestruction(id)
}

// FlushDestroyed destroys NPCs queued by RemoveNpc. Called by CleanupSystem.
func (s *State) FlushDestroyed() int {
	n := s.ecs.FlushDestroyQueue()
	if n > 0 {
		s.dirty = true
	}
	return n
}

// NpcList returns live NPCs ordered by ID so ticks are deterministic.
func (s *State) NpcList() []*Npc {
	if s.dirty {
		s.list = s.list[:0]
		s.npcs.Each(func(_ ecs.EntityID, n *Npc) {
			s.list = append(s.list, n)
		})
		sort.Slice(s.list, func(i, j int) bool { return s.list[i].ID < s.list[j].ID })
		s.dirty = false
	}
	return s.list
}

func (s *State) NpcCount() int { return s.npcs.Len() }

// IsPassable reports whether a tile is inside the map, not statically
// blocked, and not occupied by anyone but exclude.
func (s *State) IsPassable(mapID int16, x, y int32, exclude ecs.EntityID) bool {
	if s.maps != nil && !s.maps.IsPassablePoint(mapID, x, y) {
		return false
	}
	return !s.entity.IsOccupied(mapID, x, y, exclude)
}

// IsOccupied reports whether any entity other than exclude stands on the tile.
func (s *State) IsOccupied(mapID int16, x, y int32, exclude ecs.EntityID) bool {
	return s.entity.IsOccupied(mapID, x, y, exclude)
}

// PlaceNpc puts a (re)spawned NPC on (x, y) and occupies the tile.
func (s *State) PlaceNpc(n *Npc, mapID int16, x, y int32) {
	s.entity.Vacate(n.MapID, n.X, n.Y, n.ID)
	n.MapID, n.X, n.Y = mapID, x, y
	s.entity.Occupy(mapID, x, y, n.ID)
}
