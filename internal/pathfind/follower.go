// Package pathfind moves an NPC along a grid route, one tile per step.
package pathfind

// Mover is the entity being moved.
type Mover interface {
	Position() (x, y int32)
	CanStep(x, y int32) bool
	StepTo(x, y int32, heading int16)
}

// Point is a tile coordinate.
type Point struct {
	X, Y int32
}

// Follower holds one route and advances it on FollowPath. It implements
// ai.PathFollower. Accessed only from the game loop goroutine.
type Follower struct {
	mover     Mover
	maxRange  int32
	stepEvery int // ticks per step
	wait      int

	route []Point
	dest  Point
	stuck int
}

// stuckLimit is how many blocked ticks a route survives before it is dropped.
const stuckLimit = 3

// NewFollower creates a follower that searches at most maxRange tiles from
// the mover and steps once every stepEvery calls to FollowPath.
func NewFollower(m Mover, maxRange int, stepEvery int) *Follower {
	if stepEvery < 1 {
		stepEvery = 1
	}
	return &Follower{mover: m, maxRange: int32(maxRange), stepEvery: stepEvery}
}

// PathTo computes a route to (x, y). Returns false, leaving any previous
// route cleared, when the target is unreachable within range.
func (f *Follower) PathTo(x, y int32) bool {
	f.Clear()
	sx, sy := f.mover.Position()
	if sx == x && sy == y {
		return false
	}
	route := f.search(Point{sx, sy}, Point{x, y})
	if route == nil {
		return false
	}
	f.route = route
	f.dest = Point{x, y}
	return true
}

// FollowPath takes the next step of the route, if any. A step onto a tile
// that became blocked waits; after stuckLimit waits the route is dropped.
func (f *Follower) FollowPath() {
	if len(f.route) == 0 {
		return
	}
	if f.wait > 0 {
		f.wait--
		return
	}
	next := f.route[0]
	if !f.mover.CanStep(next.X, next.Y) {
		f.stuck++
		if f.stuck >= stuckLimit {
			f.Clear()
		}
		return
	}
	f.stuck = 0
	x, y := f.mover.Position()
	f.mover.StepTo(next.X, next.Y, Heading(x, y, next.X, next.Y))
	f.route = f.route[1:]
	f.wait = f.stepEvery - 1
}

// Clear drops the current route.
func (f *Follower) Clear() {
	f.route = nil
	f.wait = 0
	f.stuck = 0
}

// IsFollowingPath reports whether a route is in progress.
func (f *Follower) IsFollowingPath() bool { return len(f.route) > 0 }

// Remaining returns the number of steps left.
func (f *Follower) Remaining() int { return len(f.route) }

// Destination returns the target of the current route.
func (f *Follower) Destination() (Point, bool) {
	return f.dest, len(f.route) > 0
}

// search runs an 8-way BFS inside the Chebyshev box of maxRange around
// start. The goal tile itself may be occupied; the route then stops beside it.
func (f *Follower) search(start, goal Point) []Point {
	if Chebyshev(start.X, start.Y, goal.X, goal.Y) > f.maxRange {
		return nil
	}
	prev := map[Point]Point{start: start}
	queue := []Point{start}
	var found *Point
	for len(queue) > 0 && found == nil {
		cur := queue[0]
		queue = queue[1:]
		for h := int16(0); h < 8; h++ {
			nx, ny := Step(cur.X, cur.Y, h)
			np := Point{nx, ny}
			if _, seen := prev[np]; seen {
				continue
			}
			if Chebyshev(start.X, start.Y, nx, ny) > f.maxRange {
				continue
			}
			if np == goal {
				prev[np] = cur
				if !f.mover.CanStep(nx, ny) {
					// stop next to an occupied goal
					np = cur
				}
				found = &np
				break
			}
			if !f.mover.CanStep(nx, ny) {
				continue
			}
			prev[np] = cur
			queue = append(queue, np)
		}
	}
	if found == nil || *found == start {
		return nil
	}
	var route []Point
	for p := *found; p != start; p = prev[p] {
		route = append(route, p)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}
