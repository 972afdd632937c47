// Package systems contains the collision and spawning logic the simulation
// step runs each tick.
package systems

import (
	"image"
	"math"

	"github.com/pthm-cable/flappy/components"
)

// alphaThreshold matches the usual sprite-mask convention: pixels with alpha
// above it count as solid.
const alphaThreshold = 127

// Silhouette is a per-pixel opacity test over a w×h box anchored at its top-left corner.
type Silhouette interface {
	Size() (w, h int)
	Opaque(x, y int) bool
}

// Mask is a bit-packed Silhouette.
type Mask struct {
	w, h   int
	stride int // words per row
	bits   []uint64
}

// NewMask creates an empty (fully transparent) mask.
func NewMask(w, h int) *Mask {
	stride := (w + 63) / 64
	return &Mask{
		w:      w,
		h:      h,
		stride: stride,
		bits:   make([]uint64, stride*h),
	}
}

// MaskFromImage builds a mask from an image's alpha channel.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a>>8 > alphaThreshold {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// Size returns the mask dimensions.
func (m *Mask) Size() (int, int) {
	return m.w, m.h
}

// Set marks a pixel solid or clear. Out-of-range pixels are ignored.
func (m *Mask) Set(x, y int, solid bool) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	i := y*m.stride + x/64
	bit := uint64(1) << uint(x%64)
	if solid {
		m.bits[i] |= bit
	} else {
		m.bits[i] &^= bit
	}
}

// Opaque reports whether a pixel is solid. Out-of-range pixels are transparent.
func (m *Mask) Opaque(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.bits[y*m.stride+x/64]&(uint64(1)<<uint(x%64)) != 0
}

// Count returns the number of solid pixels.
func (m *Mask) Count() int {
	n := 0
	for _, word := range m.bits {
		for word != 0 {
			word &= word - 1
			n++
		}
	}
	return n
}

// Overlap reports whether any solid pixel of a coincides with a solid pixel
// of b when b's top-left corner sits at (dx, dy) in a's coordinates.
func Overlap(a, b Silhouette, dx, dy int) bool {
	aw, ah := a.Size()
	bw, bh := b.Size()

	x0 := max(0, dx)
	y0 := max(0, dy)
	x1 := min(aw, dx+bw)
	y1 := min(ah, dy+bh)
	if x0 >= x1 || y0 >= y1 {
		return false
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if a.Opaque(x, y) && b.Opaque(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}

// Silhouettes holds the collision shapes of one sprite set.
type Silhouettes struct {
	Avatar     []Silhouette // one per wing frame
	PipeTop    Silhouette
	PipeBottom Silhouette
}

// AvatarSize returns the size of the avatar's first frame.
func (s *Silhouettes) AvatarSize() (int, int) {
	return s.Avatar[0].Size()
}

// PipeSize returns the size of the pipe images.
func (s *Silhouettes) PipeSize() (int, int) {
	return s.PipeBottom.Size()
}

// Collide reports whether the avatar's current frame touches either pipe of
// the obstacle. The avatar's y is rounded half-to-even onto the pixel grid.
func (s *Silhouettes) Collide(a *components.Avatar, o *components.Obstacle) bool {
	frame := s.Avatar[a.Frame%len(s.Avatar)]
	ay := int(math.RoundToEven(a.Y))
	dx := o.X - a.X

	if Overlap(frame, s.PipeBottom, dx, o.Bottom-ay) {
		return true
	}
	return Overlap(frame, s.PipeTop, dx, o.Top-ay)
}
