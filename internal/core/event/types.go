package event

import (
	"time"

	"github.com/l1jgo/npcai/internal/core/ecs"
)

// NpcSynced is emitted when an NPC's pending update flags are pushed out
// at the end of its AI tick.
type NpcSynced struct {
	ID        ecs.EntityID
	NpcID     int32
	X, Y      int32
	MapID     int16
	Status    uint8
	Animation uint8
	Mask      uint8
	At        time.Time
}

// NpcDespawned is emitted once an NPC's despawn state has completed.
type NpcDespawned struct {
	ID    ecs.EntityID
	NpcID int32
	X, Y  int32
	MapID int16
	At    time.Time
}

// NpcRespawned is emitted when an NPC is given a fresh AI at its spawn point.
type NpcRespawned struct {
	ID    ecs.EntityID
	NpcID int32
	X, Y  int32
	MapID int16
	At    time.Time
}
