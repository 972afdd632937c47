// Package ui draws the heads-up display over the playfield.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg     rl.Color
	PanelBorder rl.Color
	LabelColor  rl.Color
	ValueColor  rl.Color
	ScoreColor  rl.Color
	ShadowColor rl.Color
	Padding     int32
	LineHeight  int32
	LabelWidth  int32
	FontSize    int32
	ScoreSize   int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:     rl.Color{R: 20, G: 25, B: 30, A: 180},
		PanelBorder: rl.Color{R: 60, G: 70, B: 80, A: 255},
		LabelColor:  rl.LightGray,
		ValueColor:  rl.White,
		ScoreColor:  rl.White,
		ShadowColor: rl.Color{R: 0, G: 0, B: 0, A: 160},
		Padding:     10,
		LineHeight:  22,
		LabelWidth:  90,
		FontSize:    18,
		ScoreSize:   40,
	}
}

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawLabelValue draws a label and value on the same line and returns the
// next Y position.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawShadowText draws text with a drop shadow so it reads on the sky and
// the pipes alike.
func (r *Renderer) DrawShadowText(text string, x, y, size int32, color rl.Color) {
	rl.DrawText(text, x+2, y+2, size, r.Theme.ShadowColor)
	rl.DrawText(text, x, y, size, color)
}
