package ai

import (
	"container/heap"
	"time"

	"go.uber.org/zap"
)

// Action is a unit of deferred work. Due time is At when set, otherwise the
// queue's last observed tick plus Delay.
type Action struct {
	At    time.Time
	Delay time.Duration

	// CheckState holds the action while the entity's AI refuses a state
	// change (e.g. mid-cast).
	CheckState bool

	// Func runs in-process. Script names a Lua function; used when Func is nil.
	Func   func(Entity)
	Script string

	due time.Time
	seq uint64
}

// runsBefore orders actions by due time, then push order.
func runsBefore(a, b *Action) bool {
	if a.due.Equal(b.due) {
		return a.seq < b.seq
	}
	return a.due.Before(b.due)
}

// actionHeap is a min-heap under runsBefore.
type actionHeap []*Action

func (h actionHeap) Len() int           { return len(h) }
func (h actionHeap) Less(i, j int) bool { return runsBefore(h[i], h[j]) }
func (h actionHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *actionHeap) Push(x any) { *h = append(*h, x.(*Action)) }

func (h *actionHeap) Pop() any {
	old := *h
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return a
}

// ActionQueue holds an entity's scheduled actions. Owned by value by the AI;
// accessed only from the game loop.
type ActionQueue struct {
	entity Entity
	owner  *AI
	script ScriptRunner
	log    *zap.Logger

	timers  actionHeap
	checked actionHeap // CheckState lane
	now     time.Time
	seq     uint64
	cleared uint64 // seq at the last Clear
}

func newActionQueue(e Entity, owner *AI, now time.Time, log *zap.Logger) ActionQueue {
	return ActionQueue{entity: e, owner: owner, now: now, log: log}
}

// SetScriptRunner attaches the runner used for Script actions.
func (q *ActionQueue) SetScriptRunner(r ScriptRunner) { q.script = r }

// PushAction schedules a. Nothing executes until the next CheckAction.
func (q *ActionQueue) PushAction(a Action) {
	act := a
	if act.At.IsZero() {
		act.due = q.now.Add(act.Delay)
	} else {
		act.due = act.At
	}
	q.seq++
	act.seq = q.seq
	heap.Push(q.lane(&act), &act)
}

// CheckAction runs every action due at or before now, once each, in due
// order across both lanes. Actions pushed while it runs wait for a later call.
func (q *ActionQueue) CheckAction(now time.Time) {
	q.now = now
	last := q.seq

	var deferred []*Action
	for {
		act := q.popDue(now)
		if act == nil {
			break
		}
		if act.seq > last {
			deferred = append(deferred, act)
			continue
		}
		q.handle(act)
	}
	for _, act := range deferred {
		if act.seq > q.cleared {
			heap.Push(q.lane(act), act)
		}
	}
}

// popDue removes the earliest due action. The CheckState lane only
// competes while the entity's AI accepts a state change.
func (q *ActionQueue) popDue(now time.Time) *Action {
	var from *actionHeap
	if q.timers.Len() > 0 && !q.timers[0].due.After(now) {
		from = &q.timers
	}
	if q.checked.Len() > 0 && !q.checked[0].due.After(now) && q.canChangeState() {
		if from == nil || runsBefore(q.checked[0], q.timers[0]) {
			from = &q.checked
		}
	}
	if from == nil {
		return nil
	}
	return heap.Pop(from).(*Action)
}

func (q *ActionQueue) lane(a *Action) *actionHeap {
	if a.CheckState {
		return &q.checked
	}
	return &q.timers
}

// Len returns the number of pending actions in both lanes.
func (q *ActionQueue) Len() int { return q.checked.Len() + q.timers.Len() }

// Clear drops every pending action.
func (q *ActionQueue) Clear() {
	q.timers = q.timers[:0]
	q.checked = q.checked[:0]
	q.cleared = q.seq
}

// canChangeState asks the entity's current AI, which after a respawn is no
// longer the one owning this queue.
func (q *ActionQueue) canChangeState() bool {
	if q.entity != nil {
		if cur := q.entity.AI(); cur != nil {
			return cur.CanChangeState()
		}
	}
	return q.owner == nil || q.owner.CanChangeState()
}

// handle runs a; errors belong to the action and are never retried.
func (q *ActionQueue) handle(a *Action) {
	switch {
	case a.Func != nil:
		a.Func(q.entity)
	case a.Script != "":
		if q.script == nil {
			q.log.Warn("script action dropped: no runner", zap.String("func", a.Script))
			return
		}
		if err := q.script.RunAction(a.Script, q.entity); err != nil {
			q.log.Error("script action failed", zap.String("func", a.Script), zap.Error(err))
		}
	}
}
