package ui

import "testing"

func TestHUDFrameReadsKeysOnDrawnTicksOnly(t *testing.T) {
	h := NewHUD()
	for range speedSteps {
		h.Faster()
	}
	if h.Speed() != 128 {
		t.Fatalf("speed = %d, want 128", h.Speed())
	}

	// Key state is not refreshed between drawn frames, so a held Down press
	// is visible on every skipped tick.
	reads := 0
	down := func() Keys {
		reads++
		return Keys{Down: true}
	}

	drawn := 0
	for i := 0; i < 128; i++ {
		if h.Frame(down) {
			drawn++
		}
	}

	if drawn != 1 || reads != 1 {
		t.Errorf("drawn = %d reads = %d over 128 ticks, want 1 and 1", drawn, reads)
	}
	if h.Speed() != 32 {
		t.Errorf("speed = %d after one press, want 32", h.Speed())
	}
}

func TestHUDFrameCadence(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		speed int
	}{
		{"x1", 0, 1},
		{"x2", 1, 2},
		{"x8", 3, 8},
	}

	none := func() Keys { return Keys{} }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHUD()
			for i := 0; i < tt.steps; i++ {
				h.Faster()
			}
			if h.Speed() != tt.speed {
				t.Fatalf("speed = %d, want %d", h.Speed(), tt.speed)
			}

			drawn := 0
			for i := 0; i < 64; i++ {
				if h.Frame(none) {
					drawn++
				}
			}
			if want := 64 / tt.speed; drawn != want {
				t.Errorf("drawn = %d over 64 ticks, want %d", drawn, want)
			}
		})
	}
}

func TestHUDKeys(t *testing.T) {
	h := NewHUD()

	h.apply(Keys{Up: true})
	if h.Speed() != 2 {
		t.Errorf("speed after Up = %d, want 2", h.Speed())
	}
	h.apply(Keys{Down: true})
	h.apply(Keys{Down: true})
	if h.Speed() != 1 {
		t.Errorf("speed clamps at %d, want 1", h.Speed())
	}
	h.apply(Keys{Tab: true})
	if h.showStats {
		t.Error("Tab did not hide the stats panel")
	}
}
