package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/sprites"
	"github.com/pthm-cable/flappy/ui"
)

// Window is a raylib Platform. Frame pacing comes from SetTargetFPS inside
// EndDrawing; at higher HUD speeds only every n-th tick is drawn, so ticks
// between drawn frames run unpaced.
type Window struct {
	screenW int32
	screenH int32

	tex *Textures
	hud *ui.HUD
}

var _ game.Platform = (*Window)(nil)

// NewWindow opens the window and uploads the atlas.
func NewWindow(cfg *config.Config, atlas *sprites.Atlas) *Window {
	rl.InitWindow(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32, cfg.Screen.Title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	return &Window{
		screenW: cfg.Derived.ScreenW32,
		screenH: cfg.Derived.ScreenH32,
		tex:     LoadTextures(atlas),
		hud:     ui.NewHUD(),
	}
}

// PollEvents reports a quit request from the window close button or Escape.
func (w *Window) PollEvents() game.Events {
	return game.Events{Quit: rl.WindowShouldClose()}
}

// Pace is a no-op; Present blocks in EndDrawing when it draws.
func (w *Window) Pace() {}

// Present draws the frame unless the current speed skips it.
func (w *Window) Present(frame *game.FrameState) {
	if !w.hud.Frame(ui.ReadKeys) {
		return
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.SkyBlue)

	rl.DrawTexture(w.tex.Background, 0, 0, rl.White)

	for _, o := range frame.Obstacles {
		rl.DrawTexture(w.tex.PipeTop, int32(o.X), int32(o.Top), rl.White)
		rl.DrawTexture(w.tex.PipeBottom, int32(o.X), int32(o.Bottom), rl.White)
	}

	rl.DrawTexture(w.tex.Ground, int32(frame.GroundX1), int32(frame.GroundY), rl.White)
	rl.DrawTexture(w.tex.Ground, int32(frame.GroundX2), int32(frame.GroundY), rl.White)

	for _, a := range frame.Avatars {
		w.drawAvatar(a)
	}

	w.hud.Draw(ui.HUDData{
		Score:        frame.Score,
		BestScore:    frame.BestScore,
		Generation:   frame.Generation,
		Alive:        frame.Alive,
		FPS:          rl.GetFPS(),
		ScreenWidth:  w.screenW,
		ScreenHeight: w.screenH,
	})

	rl.EndDrawing()
}

// drawAvatar draws the wing frame rotated about its center. Tilt is
// counter-clockwise positive; raylib rotates clockwise.
func (w *Window) drawAvatar(a game.AvatarFrame) {
	if a.Frame < 0 || a.Frame >= len(w.tex.Avatar) {
		return
	}
	tex := w.tex.Avatar[a.Frame]
	fw, fh := float32(tex.Width), float32(tex.Height)

	src := rl.Rectangle{X: 0, Y: 0, Width: fw, Height: fh}
	dst := rl.Rectangle{
		X:      float32(a.X) + fw/2,
		Y:      float32(a.Y) + fh/2,
		Width:  fw,
		Height: fh,
	}
	rl.DrawTexturePro(tex, src, dst, rl.Vector2{X: fw / 2, Y: fh / 2}, float32(-a.Tilt), rl.White)
}

// Close frees the textures and closes the window.
func (w *Window) Close() {
	w.tex.Unload()
	rl.CloseWindow()
}
