package world

import "github.com/l1jgo/npcai/internal/core/ecs"

// tileKey uniquely identifies a tile in the world (map + coordinates).
type tileKey struct {
	MapID int16
	X, Y  int32
}

// EntityGrid is a tile occupancy map for O(1) collision checks.
// Supports multiple occupants per tile (respawn onto an occupied spawn point).
type EntityGrid struct {
	tiles map[tileKey]map[ecs.EntityID]struct{}
}

func newEntityGrid() *EntityGrid {
	return &EntityGrid{tiles: make(map[tileKey]map[ecs.EntityID]struct{})}
}

// Occupy marks an entity as occupying a tile.
func (g *EntityGrid) Occupy(mapID int16, x, y int32, id ecs.EntityID) {
	k := tileKey{MapID: mapID, X: x, Y: y}
	cell := g.tiles[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{}, 1)
		g.tiles[k] = cell
	}
	cell[id] = struct{}{}
}

// Vacate removes an entity from a tile.
func (g *EntityGrid) Vacate(mapID int16, x, y int32, id ecs.EntityID) {
	k := tileKey{MapID: mapID, X: x, Y: y}
	if cell := g.tiles[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.tiles, k)
		}
	}
}

// Move vacates the old tile and occupies the new one.
func (g *EntityGrid) Move(mapID int16, oldX, oldY, newX, newY int32, id ecs.EntityID) {
	if oldX == newX && oldY == newY {
		return
	}
	g.Vacate(mapID, oldX, oldY, id)
	g.Occupy(mapID, newX, newY, id)
}

// IsOccupied returns true if any entity other than exclude occupies the tile.
func (g *EntityGrid) IsOccupied(mapID int16, x, y int32, exclude ecs.EntityID) bool {
	for id := range g.tiles[tileKey{MapID: mapID, X: x, Y: y}] {
		if id != exclude {
			return true
		}
	}
	return false
}
