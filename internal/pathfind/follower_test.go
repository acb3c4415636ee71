package pathfind

import "testing"

type gridMover struct {
	x, y    int32
	blocked map[Point]bool
	steps   []Point
}

func (m *gridMover) Position() (int32, int32) { return m.x, m.y }
func (m *gridMover) CanStep(x, y int32) bool  { return !m.blocked[Point{x, y}] }
func (m *gridMover) StepTo(x, y int32, _ int16) {
	m.x, m.y = x, y
	m.steps = append(m.steps, Point{x, y})
}

func TestHeading(t *testing.T) {
	cases := []struct {
		tx, ty int32
		want   int16
	}{
		{0, -1, 0}, {1, -1, 1}, {1, 0, 2}, {1, 1, 3},
		{0, 1, 4}, {-1, 1, 5}, {-1, 0, 6}, {-1, -1, 7},
		{5, 0, 2},
	}
	for _, c := range cases {
		if got := Heading(0, 0, c.tx, c.ty); got != c.want {
			t.Errorf("Heading(0,0,%d,%d) = %d, want %d", c.tx, c.ty, got, c.want)
		}
		if c.tx <= 1 && c.tx >= -1 {
			x, y := Step(0, 0, c.want)
			if x != c.tx || y != c.ty {
				t.Errorf("Step(%d) = %d,%d", c.want, x, y)
			}
		}
	}
}

func TestFollowStraightLine(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{}}
	f := NewFollower(m, 10, 1)
	if !f.PathTo(3, 0) {
		t.Fatal("no path on open grid")
	}
	if f.Remaining() != 3 {
		t.Fatalf("route len = %d, want 3", f.Remaining())
	}
	for i := 0; i < 5; i++ {
		f.FollowPath()
	}
	if m.x != 3 || m.y != 0 {
		t.Fatalf("mover at %d,%d, want 3,0", m.x, m.y)
	}
	if len(m.steps) != 3 || f.IsFollowingPath() {
		t.Fatalf("steps = %v following = %v", m.steps, f.IsFollowingPath())
	}
}

func TestFollowAroundWall(t *testing.T) {
	blocked := map[Point]bool{}
	for y := int32(-2); y <= 2; y++ {
		blocked[Point{1, y}] = true
	}
	m := &gridMover{blocked: blocked}
	f := NewFollower(m, 6, 1)
	if !f.PathTo(2, 0) {
		t.Fatal("no path around wall")
	}
	for f.IsFollowingPath() {
		f.FollowPath()
	}
	if m.x != 2 || m.y != 0 {
		t.Fatalf("mover at %d,%d, want 2,0", m.x, m.y)
	}
	for _, p := range m.steps {
		if blocked[p] {
			t.Fatalf("stepped onto wall at %v", p)
		}
	}
}

func TestPathOutOfRange(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{}}
	f := NewFollower(m, 4, 1)
	if f.PathTo(10, 0) {
		t.Fatal("path beyond max range")
	}
	if f.PathTo(0, 0) {
		t.Fatal("path to own tile")
	}
}

func TestPathToOccupiedGoalStopsBeside(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{{3, 0}: true}}
	f := NewFollower(m, 10, 1)
	if !f.PathTo(3, 0) {
		t.Fatal("no path toward occupied goal")
	}
	for f.IsFollowingPath() {
		f.FollowPath()
	}
	if Chebyshev(m.x, m.y, 3, 0) != 1 {
		t.Fatalf("stopped at %d,%d, want adjacent to 3,0", m.x, m.y)
	}
}

func TestStepEvery(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{}}
	f := NewFollower(m, 10, 3)
	f.PathTo(2, 0)
	for i := 0; i < 3; i++ {
		f.FollowPath()
	}
	if len(m.steps) != 1 {
		t.Fatalf("steps after 3 ticks = %d, want 1", len(m.steps))
	}
	f.FollowPath()
	if len(m.steps) != 2 {
		t.Fatalf("steps after 4 ticks = %d, want 2", len(m.steps))
	}
}

func TestBlockedRouteDropped(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{}}
	f := NewFollower(m, 10, 1)
	f.PathTo(3, 0)
	m.blocked[f.route[0]] = true
	for i := 0; i < stuckLimit; i++ {
		if !f.IsFollowingPath() {
			t.Fatalf("route dropped after %d blocked ticks", i)
		}
		f.FollowPath()
	}
	if f.IsFollowingPath() {
		t.Fatal("blocked route not dropped")
	}
	if len(m.steps) != 0 {
		t.Fatal("stepped onto blocked tile")
	}
}

func TestClear(t *testing.T) {
	m := &gridMover{blocked: map[Point]bool{}}
	f := NewFollower(m, 10, 1)
	f.PathTo(3, 3)
	f.Clear()
	f.FollowPath()
	if f.IsFollowingPath() || len(m.steps) != 0 {
		t.Fatal("cleared route still followed")
	}
	if _, ok := f.Destination(); ok {
		t.Fatal("destination after clear")
	}
}
