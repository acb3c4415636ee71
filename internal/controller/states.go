package controller

import "time"

// WaitState holds the NPC in place until a deadline. A locked wait refuses
// interruption (cast or emote lock); an unlocked one yields to any push.
type WaitState struct {
	until  time.Time
	locked bool
}

func NewWaitState(now time.Time, d time.Duration, locked bool) *WaitState {
	return &WaitState{until: now.Add(d), locked: locked}
}

func (s *WaitState) DoUpdate(tick time.Time) bool { return !tick.Before(s.until) }
func (s *WaitState) Cleanup(time.Time)            {}
func (s *WaitState) CanChangeState() bool         { return !s.locked }
