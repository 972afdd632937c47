package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// speedSteps are the selectable ticks per drawn frame.
var speedSteps = []int{1, 2, 4, 8, 32, 128}

// HUDData holds all the data needed to render the HUD.
type HUDData struct {
	Score        int
	BestScore    int
	Generation   int
	Alive        int
	FPS          int32
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the score, generation and alive count, plus the speed controls.
type HUD struct {
	renderer  *Renderer
	speedIdx  int
	showStats bool
	ticks     int
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer:  NewRenderer(),
		showStats: true,
	}
}

// Speed returns how many ticks run per drawn frame.
func (h *HUD) Speed() int {
	return speedSteps[h.speedIdx]
}

// Faster selects the next speed step.
func (h *HUD) Faster() {
	if h.speedIdx < len(speedSteps)-1 {
		h.speedIdx++
	}
}

// Slower selects the previous speed step.
func (h *HUD) Slower() {
	if h.speedIdx > 0 {
		h.speedIdx--
	}
}

// Keys is the keyboard state the HUD reacts to.
type Keys struct {
	Up, Down, Tab bool
}

// ReadKeys polls raylib for the HUD shortcuts.
func ReadKeys() Keys {
	return Keys{
		Up:   rl.IsKeyPressed(rl.KeyUp),
		Down: rl.IsKeyPressed(rl.KeyDown),
		Tab:  rl.IsKeyPressed(rl.KeyTab),
	}
}

// Frame counts one simulation tick and reports whether it should be drawn.
// Keys are read only on drawn ticks: raylib refreshes key state in
// EndDrawing, so a press stays visible across every skipped tick.
func (h *HUD) Frame(read func() Keys) bool {
	h.ticks++
	if h.ticks%h.Speed() != 0 {
		return false
	}
	h.apply(read())
	return true
}

// apply handles the shortcuts: Up/Down change speed, Tab toggles the stats panel.
func (h *HUD) apply(k Keys) {
	if k.Up {
		h.Faster()
	}
	if k.Down {
		h.Slower()
	}
	if k.Tab {
		h.showStats = !h.showStats
	}
}

// Draw renders the HUD. Must be called between BeginDrawing and EndDrawing.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	t := r.Theme

	// Score, top right
	score := fmt.Sprintf("%d", data.Score)
	w := rl.MeasureText(score, t.ScoreSize)
	r.DrawShadowText(score, data.ScreenWidth-w-t.Padding*2, t.Padding, t.ScoreSize, t.ScoreColor)

	if h.showStats {
		panelW := t.LabelWidth + 80
		panelH := t.LineHeight*4 + t.Padding*2
		r.DrawPanel(t.Padding, t.Padding, panelW, panelH)

		x := t.Padding * 2
		y := t.Padding * 2
		y = r.DrawLabelValue(x, y, "Gen", fmt.Sprintf("%d", data.Generation))
		y = r.DrawLabelValue(x, y, "Alive", fmt.Sprintf("%d", data.Alive))
		y = r.DrawLabelValue(x, y, "Best", fmt.Sprintf("%d", data.BestScore))
		r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	}

	// Speed controls, bottom left above the ground edge
	by := float32(data.ScreenHeight) - 40
	if gui.Button(rl.Rectangle{X: 10, Y: by, Width: 30, Height: 30}, "-") {
		h.Slower()
	}
	gui.Label(rl.Rectangle{X: 48, Y: by, Width: 60, Height: 30}, fmt.Sprintf("x%d", h.Speed()))
	if gui.Button(rl.Rectangle{X: 110, Y: by, Width: 30, Height: 30}, "+") {
		h.Faster()
	}
}
