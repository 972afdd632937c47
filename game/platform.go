package game

// Events is what the platform reports between ticks.
type Events struct {
	Quit bool
}

// Platform draws frames and delivers input. The simulation never blocks on
// it except through Pace.
type Platform interface {
	// PollEvents drains pending input.
	PollEvents() Events
	// Present draws one frame. The frame is only valid during the call.
	Present(frame *FrameState)
	// Pace waits until the next tick is due.
	Pace()
}

// AvatarFrame is the drawable state of one avatar.
type AvatarFrame struct {
	X     int
	Y     float64
	Tilt  float64
	Frame int
}

// ObstacleFrame is the drawable state of one obstacle.
type ObstacleFrame struct {
	X      int
	Top    int
	Bottom int
}

// FrameState is a read-only snapshot of a generation for drawing.
type FrameState struct {
	Avatars   []AvatarFrame
	Obstacles []ObstacleFrame

	GroundY  int
	GroundX1 int
	GroundX2 int

	Score      int
	BestScore  int
	Generation int
	Alive      int
}

// Headless is a Platform that draws nothing, never quits and never waits.
type Headless struct{}

func (Headless) PollEvents() Events  { return Events{} }
func (Headless) Present(*FrameState) {}
func (Headless) Pace()               {}
