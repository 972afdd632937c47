// Package sprites provides the images the game draws and the collision
// silhouettes derived from them. Images are either loaded from a directory of
// PNGs or drawn procedurally at the same sizes.
package sprites

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/pthm-cable/flappy/systems"
)

// Sprite sizes after the default 2× upscale.
const (
	AvatarWidth      = 68
	AvatarHeight     = 48
	PipeWidth        = 104
	PipeHeight       = 640
	GroundWidth      = 672
	GroundHeight     = 224
	BackgroundWidth  = 576
	BackgroundHeight = 1024
)

// Atlas holds every image the game draws.
type Atlas struct {
	Avatar     []image.Image // wing frames
	PipeTop    image.Image
	PipeBottom image.Image
	Ground     image.Image
	Background image.Image
}

// Silhouettes derives the collision masks from the atlas images.
func (a *Atlas) Silhouettes() *systems.Silhouettes {
	frames := make([]systems.Silhouette, len(a.Avatar))
	for i, img := range a.Avatar {
		frames[i] = systems.MaskFromImage(img)
	}
	return &systems.Silhouettes{
		Avatar:     frames,
		PipeTop:    systems.MaskFromImage(a.PipeTop),
		PipeBottom: systems.MaskFromImage(a.PipeBottom),
	}
}

// GroundWidth returns the width of one ground tile.
func (a *Atlas) GroundWidth() int {
	return a.Ground.Bounds().Dx()
}

// Load reads bird1.png..bird3.png, pipe.png, base.png and bg.png from dir and
// upscales them by scale. The top pipe is the bottom pipe flipped vertically.
func Load(dir string, scale int) (*Atlas, error) {
	read := func(name string) (image.Image, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("opening sprite: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return Scale(img, scale), nil
	}

	atlas := &Atlas{}
	for _, name := range []string{"bird1.png", "bird2.png", "bird3.png"} {
		img, err := read(name)
		if err != nil {
			return nil, err
		}
		atlas.Avatar = append(atlas.Avatar, img)
	}

	pipe, err := read("pipe.png")
	if err != nil {
		return nil, err
	}
	atlas.PipeBottom = pipe
	atlas.PipeTop = FlipVertical(pipe)

	if atlas.Ground, err = read("base.png"); err != nil {
		return nil, err
	}
	if atlas.Background, err = read("bg.png"); err != nil {
		return nil, err
	}

	return atlas, nil
}

// Scale returns a nearest-neighbour integer upscale of img.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return out
}

// FlipVertical returns img mirrored top to bottom.
func FlipVertical(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, b.Dy()-1-y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Palette
var (
	skyColor    = color.NRGBA{R: 78, G: 192, B: 202, A: 255}
	cloudColor  = color.NRGBA{R: 233, G: 252, B: 217, A: 255}
	bodyColor   = color.NRGBA{R: 250, G: 204, B: 46, A: 255}
	wingColor   = color.NRGBA{R: 246, G: 240, B: 218, A: 255}
	beakColor   = color.NRGBA{R: 246, G: 110, B: 40, A: 255}
	eyeColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	pupilColor  = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	pipeColor   = color.NRGBA{R: 115, G: 191, B: 46, A: 255}
	pipeEdge    = color.NRGBA{R: 84, G: 128, B: 36, A: 255}
	groundColor = color.NRGBA{R: 222, G: 216, B: 149, A: 255}
	grassColor  = color.NRGBA{R: 115, G: 191, B: 46, A: 255}
)

// Procedural draws a complete atlas at the standard sizes.
func Procedural() *Atlas {
	pipe := drawPipe()
	return &Atlas{
		Avatar: []image.Image{
			drawAvatar(-8),
			drawAvatar(0),
			drawAvatar(8),
		},
		PipeBottom: pipe,
		PipeTop:    FlipVertical(pipe),
		Ground:     drawGround(),
		Background: drawBackground(),
	}
}

// drawAvatar draws the bird with its wing shifted vertically by wingOffset.
func drawAvatar(wingOffset int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, AvatarWidth, AvatarHeight))

	fillEllipse(img, 32, 24, 28, 19, bodyColor)
	fillEllipse(img, 46, 16, 8, 7, eyeColor)
	fillEllipse(img, 49, 16, 3, 3, pupilColor)
	fillEllipse(img, 59, 28, 8, 5, beakColor)
	fillEllipse(img, 16, 24+wingOffset, 13, 7, wingColor)

	return img
}

func drawPipe() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, PipeWidth, PipeHeight))
	const lip = 48
	const inset = 4

	draw.Draw(img, image.Rect(inset, lip, PipeWidth-inset, PipeHeight), image.NewUniform(pipeColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, PipeWidth, lip), image.NewUniform(pipeColor), image.Point{}, draw.Src)

	// Darker outline on the lip and body edges.
	edge := image.NewUniform(pipeEdge)
	draw.Draw(img, image.Rect(0, lip-4, PipeWidth, lip), edge, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(inset, lip, inset+4, PipeHeight), edge, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(PipeWidth-inset-4, lip, PipeWidth-inset, PipeHeight), edge, image.Point{}, draw.Src)

	return img
}

func drawGround() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, GroundWidth, GroundHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(groundColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, GroundWidth, 16), image.NewUniform(grassColor), image.Point{}, draw.Src)

	// Diagonal stripes on the grass so scrolling is visible.
	for x := 0; x < GroundWidth; x += 24 {
		for i := 0; i < 12; i++ {
			for y := 4; y < 12; y++ {
				img.Set(x+i+y, y, pipeEdge)
			}
		}
	}
	return img
}

func drawBackground() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, BackgroundWidth, BackgroundHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(skyColor), image.Point{}, draw.Src)
	for i, cx := range []int{60, 200, 330, 480} {
		fillEllipse(img, cx, 600+(i%2)*30, 90, 40, cloudColor)
	}
	return img
}

func fillEllipse(img *image.NRGBA, cx, cy, rx, ry int, c color.NRGBA) {
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			nx := float64(x-cx) / float64(rx)
			ny := float64(y-cy) / float64(ry)
			if nx*nx+ny*ny <= 1 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
