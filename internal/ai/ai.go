// Package ai runs one deterministic AI tick per entity: action queue, path
// following, controller, then the state stack.
package ai

import (
	"time"

	"go.uber.org/zap"
)

// AI drives a single entity. It owns its action queue, path follower,
// controller and state stack; it only references the entity.
// Accessed only from the game loop goroutine, no locks.
type AI struct {
	entity     Entity
	actions    ActionQueue
	path       PathFollower
	controller Controller
	stack      stateStack
	log        *zap.Logger

	tick     time.Time
	prevTick time.Time
}

// New creates an AI for e. path and controller may be nil. now seeds the
// tick clock, so delays and despawns requested before the first Tick are
// measured from creation.
func New(e Entity, path PathFollower, controller Controller, now time.Time, log *zap.Logger) *AI {
	if log == nil {
		log = zap.NewNop()
	}
	a := &AI{
		entity:     e,
		path:       path,
		controller: controller,
		log:        log,
		tick:       now,
		prevTick:   now,
	}
	a.actions = newActionQueue(e, a, now, log)
	return a
}

// Tick advances the AI by one step. now must not go backwards.
func (a *AI) Tick(now time.Time) {
	a.prevTick = a.tick
	a.tick = now
	pre := a.entity

	a.actions.CheckAction(now)

	if a.path != nil {
		a.path.FollowPath()
	}

	if a.controller != nil && a.controller.CanUpdate() {
		a.controller.Tick(now)
	}

	a.stack.drain(now)

	// The entity may have been given a new AI during this tick (respawn).
	if pre.UpdatePending() && pre.AI() == a {
		pre.UpdateEntity()
	}
}

// Reset clears any route in progress.
func (a *AI) Reset() {
	if a.path != nil {
		a.path.Clear()
	}
}

// CanChangeState reports whether a new state may be pushed.
func (a *AI) CanChangeState() bool {
	cur := a.stack.top()
	return cur == nil || cur.CanChangeState()
}

// ChangeState pushes s if the current state allows it.
func (a *AI) ChangeState(s State) bool {
	if !a.CanChangeState() {
		return false
	}
	a.stack.push(s)
	return true
}

// ForceChangeState pushes s regardless of the current state.
func (a *AI) ForceChangeState(s State) {
	a.stack.push(s)
}

// QueueAction schedules act; it runs on a later Tick.
func (a *AI) QueueAction(act Action) {
	a.actions.PushAction(act)
}

// Despawn hands the decision to the controller when there is one,
// otherwise despawns immediately.
func (a *AI) Despawn() {
	if a.controller != nil {
		a.controller.Despawn()
		return
	}
	a.DespawnAfter(0)
}

// DespawnAfter pushes a despawn state that completes delay after the
// current tick. It is pushed even over states that refuse interruption.
func (a *AI) DespawnAfter(delay time.Duration) {
	a.log.Debug("npc despawn", zap.Duration("delay", delay))
	a.ForceChangeState(NewDespawnState(a.entity, a.tick, delay))
}

// ClearStateStack drops every state without running Cleanup.
func (a *AI) ClearStateStack() {
	a.stack.clear()
}

func (a *AI) IsStateStackEmpty() bool { return a.stack.empty() }

// StateDepth returns the number of states on the stack.
func (a *AI) StateDepth() int { return a.stack.len() }

// CurrentState returns the active state, or nil.
func (a *AI) CurrentState() State { return a.stack.top() }

func (a *AI) IsSpawned() bool { return a.entity.Status() != StatusDisappear }
func (a *AI) IsRoaming() bool { return a.entity.Animation() == AnimationNone }
func (a *AI) IsEngaged() bool { return a.entity.Animation() == AnimationAttack }

// LastTick is the time passed to the most recent Tick.
func (a *AI) LastTick() time.Time { return a.tick }

// PrevTick is the time passed to the Tick before that.
func (a *AI) PrevTick() time.Time { return a.prevTick }

func (a *AI) Entity() Entity             { return a.entity }
func (a *AI) PathFollower() PathFollower { return a.path }
func (a *AI) Controller() Controller     { return a.controller }

// Actions exposes the queue for runner wiring and inspection.
func (a *AI) Actions() *ActionQueue { return &a.actions }
