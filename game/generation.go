package game

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

// Outcome is the state of a generation after a tick.
type Outcome int

const (
	Running   Outcome = iota
	Extinct           // every avatar was removed
	Succeeded         // score passed the success threshold
	TimedOut          // tick limit reached
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Extinct:
		return "extinct"
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// agent is a roster entry. Both pointers refer into ECS storage and are only
// valid until the next structural change, so the roster is rebuilt after
// every spawn or removal.
type agent struct {
	entity ecs.Entity
	avatar *components.Avatar
	pilot  *components.Pilot
}

// Generation is one run of the simulation from spawn to extinction or success.
// Each avatar, its controller and its fitness accumulator live on a single
// entity, so removing one removes all three together.
type Generation struct {
	cfg     *config.Config
	session *Session
	sil     *systems.Silhouettes
	spawner *systems.ObstacleGenerator
	perf    *telemetry.PerfCollector

	world  *ecs.World
	agents *ecs.Map2[components.Avatar, components.Pilot]
	filter *ecs.Filter2[components.Avatar, components.Pilot]
	roster []agent
	dirty  bool

	obstacles []components.Obstacle
	retired   []bool
	ground    components.Ground

	pipeW, pipeH     int
	avatarW, avatarH int

	decisions *decisionPool
	spawned   int

	score   int
	tick    int
	tracked int
	outcome Outcome
}

// NewGeneration sets up the playfield with one obstacle at the first spawn
// position and no avatars.
func NewGeneration(cfg *config.Config, session *Session, sil *systems.Silhouettes, groundWidth int, rng *rand.Rand) *Generation {
	world := ecs.NewWorld()
	pipeW, pipeH := sil.PipeSize()
	avatarW, avatarH := sil.AvatarSize()

	g := &Generation{
		cfg:       cfg,
		session:   session,
		sil:       sil,
		spawner:   systems.NewObstacleGenerator(&cfg.Obstacle, pipeH, rng),
		world:     world,
		agents:    ecs.NewMap2[components.Avatar, components.Pilot](world),
		filter:    ecs.NewFilter2[components.Avatar, components.Pilot](world),
		ground:    components.NewGround(cfg.World.GroundY, groundWidth),
		pipeW:     pipeW,
		pipeH:     pipeH,
		avatarW:   avatarW,
		avatarH:   avatarH,
		decisions: newDecisionPool(&cfg.Parallel),
		outcome:   Running,
	}
	g.obstacles = append(g.obstacles, g.spawner.Spawn(cfg.World.FirstSpawnX))
	return g
}

// SetPerf attaches a perf collector. A nil collector disables timing.
func (g *Generation) SetPerf(p *telemetry.PerfCollector) {
	g.perf = p
}

// Spawn adds an avatar at the start position driven by brain. The genome's
// fitness is reset to zero and accumulates in place from here on.
func (g *Generation) Spawn(genome components.Genome, brain components.Decider) {
	genome.SetFitness(0)
	avatar := components.NewAvatar(g.cfg.Avatar.StartX, g.cfg.Avatar.StartY)
	pilot := components.Pilot{Index: g.spawned, Genome: genome, Brain: brain}
	g.agents.NewEntity(&avatar, &pilot)
	g.spawned++
	g.dirty = true
}

// Step advances the generation by one tick and returns the resulting outcome.
// Once the generation has ended, Step is a no-op.
func (g *Generation) Step() Outcome {
	if g.outcome != Running {
		return g.outcome
	}
	if g.dirty {
		g.rebuildRoster()
	}

	g.perf.StartTick()
	defer g.perf.EndTick()

	// The tracked obstacle is fixed before anything moves this tick.
	g.tracked = g.trackedIndex()

	if len(g.roster) == 0 {
		g.session.RecordScore(g.score)
		g.outcome = Extinct
		return g.outcome
	}

	law := &g.cfg.Avatar
	fit := &g.cfg.Fitness

	g.perf.StartPhase(telemetry.PhaseMotion)
	for _, a := range g.roster {
		a.avatar.Advance(law)
		a.pilot.Reward(fit.Survive)
	}

	g.perf.StartPhase(telemetry.PhaseDecide)
	g.decide(&g.obstacles[g.tracked])

	g.perf.StartPhase(telemetry.PhaseCollide)
	addObstacle := g.collide()

	g.perf.StartPhase(telemetry.PhaseObstacles)
	if addObstacle {
		g.score++
		for _, a := range g.roster {
			a.pilot.Reward(fit.Pass)
		}
		g.obstacles = append(g.obstacles, g.spawner.Spawn(g.cfg.World.SpawnX))
		g.retired = append(g.retired, false)
	}
	g.dropRetired()

	g.perf.StartPhase(telemetry.PhaseBounds)
	g.enforceBounds()

	g.tick++
	switch {
	case g.score > g.cfg.Generation.SuccessScore:
		g.outcome = Succeeded
	case g.cfg.Generation.MaxTicks > 0 && g.tick >= g.cfg.Generation.MaxTicks:
		g.outcome = TimedOut
	}
	// A finished generation leaves the ground and wings where they were.
	if g.outcome != Running {
		g.session.RecordScore(g.score)
		return g.outcome
	}

	g.perf.StartPhase(telemetry.PhaseScroll)
	g.ground.Advance(g.cfg.Ground.Velocity)
	for _, a := range g.roster {
		a.avatar.Animate(law)
	}

	return Running
}

// trackedIndex picks the obstacle controllers observe: the second one once
// the lead avatar is fully past the first.
func (g *Generation) trackedIndex() int {
	if len(g.roster) == 0 || len(g.obstacles) < 2 {
		return 0
	}
	if g.roster[0].avatar.X > g.obstacles[0].X+g.pipeW {
		return 1
	}
	return 0
}

// collide runs every obstacle against every alive avatar, then moves the
// obstacle. It reports whether an obstacle was passed for the first time.
func (g *Generation) collide() bool {
	if cap(g.retired) < len(g.obstacles) {
		g.retired = make([]bool, len(g.obstacles))
	}
	g.retired = g.retired[:len(g.obstacles)]

	removed := false
	passed := false
	for i := range g.obstacles {
		o := &g.obstacles[i]
		for _, a := range g.roster {
			if a.pilot.Dead {
				continue
			}
			if g.sil.Collide(a.avatar, o) {
				a.pilot.Reward(g.cfg.Fitness.Collision)
				a.pilot.Dead = true
				removed = true
				continue
			}
			if o.MarkPassed(a.avatar.X) {
				passed = true
			}
		}
		g.retired[i] = o.Retired(g.pipeW)
		o.Advance(g.cfg.Obstacle.Velocity)
	}

	if removed {
		g.compact()
	}
	return passed
}

// dropRetired removes obstacles flagged during collide, keeping order.
func (g *Generation) dropRetired() {
	kept := g.obstacles[:0]
	for i, o := range g.obstacles {
		if i < len(g.retired) && g.retired[i] {
			continue
		}
		kept = append(kept, o)
	}
	g.obstacles = kept
	g.retired = g.retired[:0]
}

// enforceBounds removes avatars touching the ground or above the screen.
func (g *Generation) enforceBounds() {
	removed := false
	for _, a := range g.roster {
		y := a.avatar.Y
		if y+float64(g.avatarH) >= float64(g.cfg.World.GroundY) || y < 0 {
			a.pilot.Dead = true
			removed = true
		}
	}
	if removed {
		g.compact()
	}
}

// compact drops every dead entity and rebuilds the roster. Entities are
// collected before removal so the query finishes before storage changes.
func (g *Generation) compact() {
	var dead []ecs.Entity
	for _, a := range g.roster {
		if a.pilot.Dead {
			dead = append(dead, a.entity)
		}
	}
	for _, e := range dead {
		g.world.RemoveEntity(e)
	}
	if len(dead) > 0 {
		slog.Debug("avatars removed", "tick", g.tick, "count", len(dead))
	}
	g.rebuildRoster()
}

// rebuildRoster refreshes the roster from the world in spawn order.
func (g *Generation) rebuildRoster() {
	g.roster = g.roster[:0]
	query := g.filter.Query()
	for query.Next() {
		avatar, pilot := query.Get()
		g.roster = append(g.roster, agent{entity: query.Entity(), avatar: avatar, pilot: pilot})
	}
	sort.Slice(g.roster, func(i, j int) bool {
		return g.roster[i].pilot.Index < g.roster[j].pilot.Index
	})
	g.dirty = false
}

// Alive returns the number of avatars still in play.
func (g *Generation) Alive() int {
	if g.dirty {
		g.rebuildRoster()
	}
	return len(g.roster)
}

// Score returns the number of obstacles passed this generation.
func (g *Generation) Score() int { return g.score }

// Tick returns the number of completed ticks.
func (g *Generation) Tick() int { return g.tick }

// Outcome returns the state after the last Step.
func (g *Generation) Outcome() Outcome { return g.outcome }

// Tracked returns the index of the obstacle observed during the last Step.
func (g *Generation) Tracked() int { return g.tracked }

// Obstacles returns the live obstacles. The slice is owned by the generation.
func (g *Generation) Obstacles() []components.Obstacle { return g.obstacles }

// Snapshot copies drawable state into dst, reusing its slices.
func (g *Generation) Snapshot(dst *FrameState) {
	if g.dirty {
		g.rebuildRoster()
	}

	dst.Avatars = dst.Avatars[:0]
	for _, a := range g.roster {
		dst.Avatars = append(dst.Avatars, AvatarFrame{
			X:     a.avatar.X,
			Y:     a.avatar.Y,
			Tilt:  a.avatar.Tilt,
			Frame: a.avatar.Frame,
		})
	}

	dst.Obstacles = dst.Obstacles[:0]
	for _, o := range g.obstacles {
		dst.Obstacles = append(dst.Obstacles, ObstacleFrame{X: o.X, Top: o.Top, Bottom: o.Bottom})
	}

	dst.GroundY = g.ground.Y
	dst.GroundX1 = g.ground.X1
	dst.GroundX2 = g.ground.X2
	dst.Score = g.score
	dst.BestScore = g.session.BestScore()
	dst.Generation = g.session.Generation()
	dst.Alive = len(g.roster)
}

// observe builds the controller input for an avatar against obstacle o.
func observe(a *components.Avatar, o *components.Obstacle) components.Observation {
	return components.Observation{
		a.Y,
		math.Abs(a.Y - float64(o.Height)),
		math.Abs(a.Y - float64(o.Bottom)),
	}
}
