package pathfind

// Heading deltas, 0 = north, clockwise.
var headingDX = [8]int32{0, 1, 1, 1, 0, -1, -1, -1}
var headingDY = [8]int32{-1, -1, 0, 1, 1, 1, 0, -1}

// Heading returns the 0-7 heading from (sx, sy) toward (tx, ty).
func Heading(sx, sy, tx, ty int32) int16 {
	ddx, ddy := sign(tx-sx), sign(ty-sy)
	for i := int16(0); i < 8; i++ {
		if headingDX[i] == ddx && headingDY[i] == ddy {
			return i
		}
	}
	return 0
}

// Step returns the tile one step from (x, y) along heading h.
func Step(x, y int32, h int16) (int32, int32) {
	h &= 7
	return x + headingDX[h], y + headingDY[h]
}

// Chebyshev returns the Chebyshev distance between two points.
func Chebyshev(x1, y1, x2, y2 int32) int32 {
	dx := abs32(x1 - x2)
	dy := abs32(y1 - y2)
	if dy > dx {
		return dy
	}
	return dx
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int32) int32 {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
