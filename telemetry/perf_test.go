package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPerf() (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector()
	pc.now = clock.Now
	return pc, clock
}

// playTick records one tick spending d[i] in the i-th listed phase.
func playTick(pc *PerfCollector, clock *fakeClock, phases []Phase, d []time.Duration) {
	pc.StartTick()
	for i, phase := range phases {
		pc.StartPhase(phase)
		clock.Advance(d[i])
	}
	pc.EndTick()
}

func TestPerfCollector_PhaseShares(t *testing.T) {
	pc, clock := newTestPerf()

	phases := []Phase{PhaseMotion, PhaseDecide, PhaseCollide}
	playTick(pc, clock, phases, []time.Duration{10 * time.Microsecond, 60 * time.Microsecond, 30 * time.Microsecond})
	playTick(pc, clock, phases, []time.Duration{10 * time.Microsecond, 60 * time.Microsecond, 130 * time.Microsecond})

	s := pc.Stats()

	if s.Ticks != 2 || s.Total != 300*time.Microsecond {
		t.Fatalf("ticks=%d total=%v, want 2 and 300µs", s.Ticks, s.Total)
	}
	if s.AvgTick != 150*time.Microsecond || s.MinTick != 100*time.Microsecond || s.MaxTick != 200*time.Microsecond {
		t.Errorf("avg/min/max = %v/%v/%v, want 150µs/100µs/200µs", s.AvgTick, s.MinTick, s.MaxTick)
	}

	tests := []struct {
		phase Phase
		want  float64
	}{
		{PhaseMotion, 20.0 / 3},
		{PhaseDecide, 40},
		{PhaseCollide, 160.0 / 3},
		{PhaseScroll, 0},
	}
	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			if got := s.Share(tt.phase); got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("share = %v, want %v", got, tt.want)
			}
		})
	}

	if want := 2 / (300 * time.Microsecond).Seconds(); s.TicksPerSecond != want {
		t.Errorf("ticks/sec = %v, want %v", s.TicksPerSecond, want)
	}
}

func TestPerfCollector_TimeBetweenTicksIgnored(t *testing.T) {
	pc, clock := newTestPerf()

	playTick(pc, clock, []Phase{PhaseMotion}, []time.Duration{time.Millisecond})
	clock.Advance(time.Second) // presenting, pacing
	playTick(pc, clock, []Phase{PhaseMotion}, []time.Duration{time.Millisecond})

	s := pc.Stats()
	if s.Total != 2*time.Millisecond {
		t.Errorf("total = %v, want 2ms", s.Total)
	}
	if s.Share(PhaseMotion) != 100 {
		t.Errorf("motion share = %v, want 100", s.Share(PhaseMotion))
	}
}

func TestPerfCollector_FlushStartsNewGeneration(t *testing.T) {
	pc, clock := newTestPerf()

	for i := 0; i < 3; i++ {
		playTick(pc, clock, []Phase{PhaseDecide}, []time.Duration{50 * time.Microsecond})
	}
	first := pc.Flush()
	if first.Ticks != 3 {
		t.Fatalf("first generation ticks = %d, want 3", first.Ticks)
	}

	playTick(pc, clock, []Phase{PhaseBounds}, []time.Duration{20 * time.Microsecond})
	second := pc.Flush()

	if second.Ticks != 1 || second.Total != 20*time.Microsecond {
		t.Errorf("second generation = %d ticks %v, want 1 tick 20µs", second.Ticks, second.Total)
	}
	if second.Phases[PhaseDecide] != 0 {
		t.Errorf("decide time leaked across generations: %v", second.Phases[PhaseDecide])
	}
	if second.MinTick != 20*time.Microsecond {
		t.Errorf("min tick = %v, want 20µs", second.MinTick)
	}
}

func TestPerfCollector_FrameRate(t *testing.T) {
	pc, clock := newTestPerf()

	// 61 frames 1/60 s apart span one second.
	for i := 0; i <= 60; i++ {
		pc.RecordFrame()
		clock.Advance(time.Second / 60)
	}

	fps := pc.Stats().FPS
	if fps < 59.99 || fps > 60.01 {
		t.Errorf("fps = %v, want 60", fps)
	}

	one, _ := newTestPerf()
	one.RecordFrame()
	if one.Stats().FPS != 0 {
		t.Errorf("single frame fps = %v, want 0", one.Stats().FPS)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc, _ := newTestPerf()
	s := pc.Stats()
	if s.Ticks != 0 || s.AvgTick != 0 || s.TicksPerSecond != 0 {
		t.Errorf("empty stats = %+v", s)
	}
	if s.Share(PhaseMotion) != 0 {
		t.Errorf("empty share = %v", s.Share(PhaseMotion))
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhaseDecide)
	pc.EndTick()
	pc.RecordFrame()

	if s := pc.Flush(); s.Ticks != 0 {
		t.Errorf("nil collector reported %d ticks", s.Ticks)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	var stats PerfStats
	stats.Ticks = 4
	stats.Total = time.Millisecond
	stats.AvgTick = 250 * time.Microsecond
	stats.Phases[PhaseDecide] = 600 * time.Microsecond
	stats.Phases[PhaseCollide] = 300 * time.Microsecond

	row := stats.ToCSV("run", 7)
	if row.RunID != "run" || row.Generation != 7 || row.Ticks != 4 {
		t.Errorf("identity = (%q, %d, %d), want (run, 7, 4)", row.RunID, row.Generation, row.Ticks)
	}
	if row.AvgTickUS != 250 {
		t.Errorf("AvgTickUS = %d, want 250", row.AvgTickUS)
	}
	if row.DecidePct != 60 || row.CollidePct != 30 || row.MotionPct != 0 {
		t.Errorf("phase pct = (%v, %v, %v), want (60, 30, 0)", row.DecidePct, row.CollidePct, row.MotionPct)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseScroll.String() != "scroll" || Phase(99).String() != "unknown" {
		t.Errorf("names = %q, %q", PhaseScroll, Phase(99))
	}
}
