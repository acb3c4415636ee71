package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply script reloads
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: NPC AI ticks
	PhasePostUpdate              // 3: respawn
	PhasePersist                 // 4: flush lifecycle events to the DB
	PhaseCleanup                 // 5: destroy queued entities
)

// System is the interface every game-loop system implements. now is the
// simulation time of the frame, identical for every system in it.
type System interface {
	Phase() Phase
	Update(now time.Time)
}
