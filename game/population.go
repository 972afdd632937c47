package game

import (
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

// BrainBuilder turns a genome into a controller for one generation.
type BrainBuilder[G components.Genome] func(genome G) (components.Decider, error)

// PopulationOptions holds the collaborators a Population runs with. Zero
// values get headless defaults.
type PopulationOptions struct {
	Platform Platform
	Rand     *rand.Rand
	Perf     *telemetry.PerfCollector

	// Exit ends the process when the platform reports a quit. Defaults to os.Exit.
	Exit func(code int)

	// OnGeneration is called after each generation finishes.
	OnGeneration func(GenerationResult)
}

// GenerationResult summarizes a finished generation. Fitness values live on
// the genomes themselves.
type GenerationResult struct {
	Generation int
	Outcome    Outcome
	Score      int
	BestScore  int
	Ticks      int
	Spawned    int
	Skipped    int // genomes whose controller could not be built
	Duration   time.Duration
}

// Population runs generations of genomes through the simulation.
type Population[G components.Genome] struct {
	cfg         *config.Config
	session     *Session
	sil         *systems.Silhouettes
	groundWidth int
	build       BrainBuilder[G]
	opts        PopulationOptions

	frame FrameState
}

// NewPopulation creates a population controller.
func NewPopulation[G components.Genome](
	cfg *config.Config,
	session *Session,
	sil *systems.Silhouettes,
	groundWidth int,
	build BrainBuilder[G],
	opts PopulationOptions,
) *Population[G] {
	if opts.Platform == nil {
		opts.Platform = Headless{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	return &Population[G]{
		cfg:         cfg,
		session:     session,
		sil:         sil,
		groundWidth: groundWidth,
		build:       build,
		opts:        opts,
	}
}

// Session returns the session shared by every generation.
func (p *Population[G]) Session() *Session {
	return p.session
}

// RunGeneration spawns one avatar per genome and runs the simulation until
// the generation ends. Each genome's fitness is reset to zero and then
// accumulated in place; genomes whose controller cannot be built keep zero.
func (p *Population[G]) RunGeneration(genomes []G) GenerationResult {
	start := time.Now()
	number := p.session.NextGeneration()

	gen := NewGeneration(p.cfg, p.session, p.sil, p.groundWidth, p.opts.Rand)
	gen.SetPerf(p.opts.Perf)

	skipped := 0
	for _, genome := range genomes {
		brain, err := p.build(genome)
		if err != nil {
			genome.SetFitness(0)
			skipped++
			slog.Warn("controller build failed", "generation", number, "genome", genome.ID(), "error", err)
			continue
		}
		gen.Spawn(genome, brain)
	}

	for {
		p.opts.Platform.Pace()
		if ev := p.opts.Platform.PollEvents(); ev.Quit {
			slog.Info("quit requested", "generation", number, "tick", gen.Tick())
			p.opts.Exit(0)
			return p.result(gen, number, len(genomes)-skipped, skipped, start)
		}

		if gen.Step() != Running {
			break
		}

		gen.Snapshot(&p.frame)
		p.opts.Platform.Present(&p.frame)
		p.opts.Perf.RecordFrame()
	}

	res := p.result(gen, number, len(genomes)-skipped, skipped, start)
	slog.Info("generation finished",
		"generation", res.Generation,
		"outcome", res.Outcome.String(),
		"score", res.Score,
		"best_score", res.BestScore,
		"ticks", res.Ticks,
		"spawned", res.Spawned,
		"skipped", res.Skipped,
		"duration_ms", res.Duration.Milliseconds(),
	)
	if p.opts.OnGeneration != nil {
		p.opts.OnGeneration(res)
	}
	return res
}

func (p *Population[G]) result(gen *Generation, number, spawned, skipped int, start time.Time) GenerationResult {
	return GenerationResult{
		Generation: number,
		Outcome:    gen.Outcome(),
		Score:      gen.Score(),
		BestScore:  p.session.BestScore(),
		Ticks:      gen.Tick(),
		Spawned:    spawned,
		Skipped:    skipped,
		Duration:   time.Since(start),
	}
}
