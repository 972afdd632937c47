package components

// Obstacle is a pipe pair: a top pipe hanging down to Height and a bottom
// pipe starting Gap below it.
type Obstacle struct {
	X      int
	Height int // y of the gap's upper edge
	Top    int // y of the top pipe image
	Bottom int // y of the bottom pipe image
	Passed bool
}

// Advance scrolls the obstacle left.
func (o *Obstacle) Advance(velocity int) {
	o.X -= velocity
}

// Retired reports whether the obstacle has scrolled fully off the left edge.
func (o *Obstacle) Retired(width int) bool {
	return o.X+width < 0
}

// MarkPassed flags the obstacle once an avatar at x has moved beyond it.
// It reports true only on the first transition.
func (o *Obstacle) MarkPassed(x int) bool {
	if o.Passed || o.X >= x {
		return false
	}
	o.Passed = true
	return true
}
