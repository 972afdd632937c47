// Package renderer draws the playfield in a raylib window.
package renderer

import (
	"image"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/sprites"
)

// Textures holds the GPU copies of the sprite atlas.
type Textures struct {
	Avatar     []rl.Texture2D
	PipeTop    rl.Texture2D
	PipeBottom rl.Texture2D
	Ground     rl.Texture2D
	Background rl.Texture2D
}

// LoadTextures uploads every atlas image. Must be called after the window is
// created.
func LoadTextures(atlas *sprites.Atlas) *Textures {
	t := &Textures{
		Avatar:     make([]rl.Texture2D, len(atlas.Avatar)),
		PipeTop:    upload(atlas.PipeTop),
		PipeBottom: upload(atlas.PipeBottom),
		Ground:     upload(atlas.Ground),
		Background: upload(atlas.Background),
	}
	for i, img := range atlas.Avatar {
		t.Avatar[i] = upload(img)
	}
	return t
}

func upload(img image.Image) rl.Texture2D {
	rimg := rl.NewImageFromImage(img)
	tex := rl.LoadTextureFromImage(rimg)
	rl.SetTextureFilter(tex, rl.FilterPoint)
	rl.UnloadImage(rimg)
	return tex
}

// Unload frees the textures.
func (t *Textures) Unload() {
	for _, tex := range t.Avatar {
		rl.UnloadTexture(tex)
	}
	rl.UnloadTexture(t.PipeTop)
	rl.UnloadTexture(t.PipeBottom)
	rl.UnloadTexture(t.Ground)
	rl.UnloadTexture(t.Background)
}
