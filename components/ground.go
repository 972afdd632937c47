package components

// Ground is two tiles of the same image scrolling left end to end.
type Ground struct {
	Y      int
	X1, X2 int
	Width  int
}

// NewGround lays the two tiles side by side starting at x=0.
func NewGround(y, width int) Ground {
	return Ground{Y: y, X1: 0, X2: width, Width: width}
}

// Advance scrolls both tiles and moves any tile that left the screen
// behind the other one.
func (g *Ground) Advance(velocity int) {
	g.X1 -= velocity
	g.X2 -= velocity

	if g.X1+g.Width < 0 {
		g.X1 = g.X2 + g.Width
	}
	if g.X2+g.Width < 0 {
		g.X2 = g.X1 + g.Width
	}
}
