package telemetry

import (
	"log/slog"
	"time"
)

// Phase is a section of the simulation step.
type Phase int

// Phases in step order.
const (
	PhaseMotion Phase = iota
	PhaseDecide
	PhaseCollide
	PhaseObstacles
	PhaseBounds
	PhaseScroll

	numPhases
	noPhase Phase = -1
)

var phaseNames = [numPhases]string{"motion", "decide", "collide", "obstacles", "bounds", "scroll"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PerfCollector times the ticks of the generation being played. Totals
// accumulate until Flush, which reports them and starts over, so every
// generation gets its own breakdown. A nil collector is a no-op.
type PerfCollector struct {
	now func() time.Time

	ticks    int
	total    time.Duration
	min, max time.Duration
	phases   [numPhases]time.Duration

	tickStart  time.Time
	phaseStart time.Time
	phase      Phase

	frames     int
	firstFrame time.Time
	lastFrame  time.Time
}

// NewPerfCollector creates a collector reading the wall clock.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{now: time.Now, phase: noPhase}
}

// StartTick begins timing a simulation tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.tickStart = p.now()
	p.phase = noPhase
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	if p == nil {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

// EndTick closes the running phase and adds the tick to the totals.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phase = noPhase

	d := now.Sub(p.tickStart)
	if p.ticks == 0 || d < p.min {
		p.min = d
	}
	if d > p.max {
		p.max = d
	}
	p.total += d
	p.ticks++
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != noPhase {
		p.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// RecordFrame marks a presented frame.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	now := p.now()
	if p.frames == 0 {
		p.firstFrame = now
	}
	p.lastFrame = now
	p.frames++
}

// PerfStats is the timing breakdown of one generation.
type PerfStats struct {
	Ticks   int
	Total   time.Duration
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	Phases  [numPhases]time.Duration // summed over the generation

	TicksPerSecond float64
	FPS            float64 // Present calls per second
}

// Share returns the percentage of tick time spent in phase.
func (s PerfStats) Share(phase Phase) float64 {
	if s.Total <= 0 || phase < 0 || phase >= numPhases {
		return 0
	}
	return float64(s.Phases[phase]) * 100 / float64(s.Total)
}

// Stats reports the generation so far without resetting it.
func (p *PerfCollector) Stats() PerfStats {
	if p == nil {
		return PerfStats{}
	}

	s := PerfStats{
		Ticks:   p.ticks,
		Total:   p.total,
		MinTick: p.min,
		MaxTick: p.max,
		Phases:  p.phases,
	}
	if p.ticks > 0 {
		s.AvgTick = p.total / time.Duration(p.ticks)
	}
	if p.total > 0 {
		s.TicksPerSecond = float64(p.ticks) / p.total.Seconds()
	}
	if span := p.lastFrame.Sub(p.firstFrame); p.frames > 1 && span > 0 {
		s.FPS = float64(p.frames-1) / span.Seconds()
	}
	return s
}

// Flush reports the generation and clears the totals for the next one.
func (p *PerfCollector) Flush() PerfStats {
	if p == nil {
		return PerfStats{}
	}
	s := p.Stats()
	now := p.now
	*p = PerfCollector{now: now, phase: noPhase}
	return s
}

// LogStats logs the breakdown, skipping phases under 0.1% of tick time.
func (s PerfStats) LogStats() {
	attrs := []any{
		"ticks", s.Ticks,
		"avg_tick_us", s.AvgTick.Microseconds(),
		"min_tick_us", s.MinTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for phase := PhaseMotion; phase < numPhases; phase++ {
		if pct := s.Share(phase); pct > 0.1 {
			attrs = append(attrs, phase.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for phase := PhaseMotion; phase < numPhases; phase++ {
		attrs = append(attrs, slog.Float64(phase.String()+"_pct", s.Share(phase)))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	RunID        string  `csv:"run_id"`
	Generation   int     `csv:"generation"`
	Ticks        int     `csv:"ticks"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	MotionPct    float64 `csv:"motion_pct"`
	DecidePct    float64 `csv:"decide_pct"`
	CollidePct   float64 `csv:"collide_pct"`
	ObstaclesPct float64 `csv:"obstacles_pct"`
	BoundsPct    float64 `csv:"bounds_pct"`
	ScrollPct    float64 `csv:"scroll_pct"`
}

// ToCSV flattens the stats of a generation into a row.
func (s PerfStats) ToCSV(runID string, generation int) PerfStatsCSV {
	return PerfStatsCSV{
		RunID:        runID,
		Generation:   generation,
		Ticks:        s.Ticks,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		MotionPct:    s.Share(PhaseMotion),
		DecidePct:    s.Share(PhaseDecide),
		CollidePct:   s.Share(PhaseCollide),
		ObstaclesPct: s.Share(PhaseObstacles),
		BoundsPct:    s.Share(PhaseBounds),
		ScrollPct:    s.Share(PhaseScroll),
	}
}
