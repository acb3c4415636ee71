package ai

import "time"

// Status is the entity's world presence as seen by clients.
type Status uint8

const (
	StatusNormal    Status = iota
	StatusUpdate           // spawned, waiting for first full update
	StatusDisappear        // despawned; not visible, not ticked by controllers
)

// Animation is the entity's current animation/stance.
type Animation uint8

const (
	AnimationNone    Animation = iota // idle / roaming
	AnimationAttack                   // engaged in combat
	AnimationDeath
	AnimationDespawn // fading out
)

// UpdateMask flags which parts of an entity must be synchronised to clients.
type UpdateMask uint8

const (
	UpdatePos UpdateMask = 1 << iota
	UpdateStatus
	UpdateHP
	UpdateCombat
	UpdateDespawn

	UpdateNone UpdateMask = 0
)

// Entity is the object an AI animates. The AI holds it by reference only;
// the entity owns its AI and may replace it at any time on the game loop.
type Entity interface {
	Status() Status
	SetStatus(Status)
	Animation() Animation
	SetAnimation(Animation)

	// UpdatePending reports whether any update flag is set.
	UpdatePending() bool
	SetUpdate(UpdateMask)

	// AI returns the entity's current AI instance. Callers must re-read it
	// instead of caching it across ticks.
	AI() *AI

	// UpdateEntity pushes pending changes to observers and clears the mask.
	UpdateEntity()
}

// PathFollower advances an entity along a precomputed route.
type PathFollower interface {
	Clear()
	FollowPath()
}

// Controller is an external decision delegate (mob brain, pet owner, GM).
type Controller interface {
	CanUpdate() bool
	Tick(now time.Time)
	Despawn()
}

// ScriptRunner executes script-backed queued actions.
type ScriptRunner interface {
	RunAction(name string, e Entity) error
}
