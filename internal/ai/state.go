package ai

import "time"

// State is one layer of behaviour on the AI's state stack. Only the top
// state is updated; DoUpdate returning true pops it after Cleanup.
type State interface {
	DoUpdate(tick time.Time) bool
	Cleanup(tick time.Time)
	CanChangeState() bool
}

// stateStack is a LIFO of exclusively owned states. Each push gets an id so
// a state can be found again after its own update rearranged the stack.
type stateStack struct {
	entries []stackEntry
	nextID  uint64
}

type stackEntry struct {
	state State
	id    uint64
}

func (s *stateStack) push(st State) {
	s.nextID++
	s.entries = append(s.entries, stackEntry{state: st, id: s.nextID})
}

func (s *stateStack) top() State {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1].state
}

func (s *stateStack) empty() bool { return len(s.entries) == 0 }
func (s *stateStack) len() int    { return len(s.entries) }

// drain updates the top state and pops it while it reports completion.
// A state popped here may reveal another that also completes this tick.
// A completing state that is no longer on the stack (cleared during its own
// update) is neither cleaned up nor popped again.
func (s *stateStack) drain(tick time.Time) int {
	popped := 0
	for !s.empty() {
		cur := s.entries[len(s.entries)-1]
		if !cur.state.DoUpdate(tick) {
			break
		}
		idx := s.find(cur.id)
		if idx < 0 {
			continue
		}
		cur.state.Cleanup(tick)
		s.removeAt(idx)
		popped++
	}
	return popped
}

// find returns the index of the entry pushed with id, searching from the top.
func (s *stateStack) find(id uint64) int {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].id == id {
			return i
		}
	}
	return -1
}

// removeAt drops the entry at idx. States pushed above it stay in place.
func (s *stateStack) removeAt(idx int) {
	n := len(s.entries)
	copy(s.entries[idx:], s.entries[idx+1:])
	s.entries[n-1] = stackEntry{}
	s.entries = s.entries[:n-1]
}

// clear drops every state without calling Cleanup.
func (s *stateStack) clear() {
	for i := range s.entries {
		s.entries[i] = stackEntry{}
	}
	s.entries = s.entries[:0]
}
