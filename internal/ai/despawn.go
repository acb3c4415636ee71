package ai

import "time"

// DespawnState fades the entity out and marks it disappeared once delay has
// elapsed since it was entered. It cannot be interrupted.
type DespawnState struct {
	entity  Entity
	entered time.Time
	delay   time.Duration
}

func NewDespawnState(e Entity, entered time.Time, delay time.Duration) *DespawnState {
	if e.Status() != StatusDisappear {
		e.SetAnimation(AnimationDespawn)
	}
	e.SetUpdate(UpdateHP)
	return &DespawnState{entity: e, entered: entered, delay: delay}
}

func (s *DespawnState) DoUpdate(tick time.Time) bool {
	if tick.Before(s.entered.Add(s.delay)) {
		return false
	}
	s.entity.SetStatus(StatusDisappear)
	s.entity.SetUpdate(UpdateDespawn)
	return true
}

func (s *DespawnState) Cleanup(time.Time) {}

func (s *DespawnState) CanChangeState() bool { return false }

// Delay returns the configured fade delay.
func (s *DespawnState) Delay() time.Duration { return s.delay }
