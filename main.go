package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/renderer"
	"github.com/pthm-cable/flappy/sprites"
	"github.com/pthm-cable/flappy/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 0, "Generations to evolve (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and champions")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	profileMode := flag.String("profile", "", "Write a profile to the output directory: cpu, mem")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *generations > 0 {
		cfg.Evolution.Generations = *generations
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	atlas, err := loadAtlas(cfg)
	if err != nil {
		slog.Error("failed to load sprites", "error", err)
		os.Exit(1)
	}

	runID := telemetry.NewRunID()
	out, err := telemetry.NewOutputManager(*outputDir, runID)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	prof := startProfile(*profileMode, *outputDir)

	// Quitting from the window ends the process; flush what we have first.
	cleanup := func() {
		prof.Stop()
		if err := out.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}
	defer cleanup()

	perf := telemetry.NewPerfCollector()
	collector := telemetry.NewCollector(runID, out, perf, cfg.Telemetry.ChampionsSize)

	var platform game.Platform = game.Headless{}
	if !*headless {
		w := renderer.NewWindow(cfg, atlas)
		defer w.Close()
		platform = w
	}

	pop := game.NewPopulation[*neural.Individual](
		cfg,
		game.NewSession(),
		atlas.Silhouettes(),
		atlas.GroundWidth(),
		neural.BuildBrain,
		game.PopulationOptions{
			Platform: platform,
			Rand:     rng,
			Perf:     perf,
			Exit: func(code int) {
				cleanup()
				os.Exit(code)
			},
			OnGeneration: func(r game.GenerationResult) {
				collector.RecordSimulation(telemetry.SimulationSummary{
					Outcome:   r.Outcome.String(),
					Score:     r.Score,
					BestScore: r.BestScore,
					Ticks:     r.Ticks,
					Spawned:   r.Spawned,
					Skipped:   r.Skipped,
					Duration:  r.Duration,
				})
			},
		},
	)

	evolver := neural.NewEvolver(&cfg.NEAT, &cfg.Evolution, rng)
	evolver.OnEpoch = func(report neural.EpochReport) {
		if _, err := collector.Flush(report); err != nil {
			slog.Warn("failed to write generation output", "generation", report.Generation, "error", err)
		}
		if every := cfg.Telemetry.PerfLogEvery; every > 0 && report.Generation%every == 0 {
			collector.LastPerf().LogStats()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting evolution",
		"run_id", runID,
		"seed", rngSeed,
		"headless", *headless,
		"pop_size", cfg.NEAT.PopSize,
		"generations", cfg.Evolution.Generations,
		"output_dir", *outputDir,
	)

	champion, err := evolver.Run(ctx, func(_ context.Context, population []*neural.Individual) error {
		pop.RunGeneration(population)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("evolution failed", "error", err)
		cleanup()
		os.Exit(1)
	}

	attrs := []any{
		"run_id", runID,
		"generations", evolver.Generation(),
		"best_score", pop.Session().BestScore(),
	}
	if champion != nil {
		attrs = append(attrs, "champion", champion.ID(), "champion_fitness", champion.Fitness())
	}
	slog.Info("run finished", attrs...)
}

// loadAtlas reads sprites from the configured directory, or draws them when
// none is set.
func loadAtlas(cfg *config.Config) (*sprites.Atlas, error) {
	if cfg.Assets.Dir == "" {
		return sprites.Procedural(), nil
	}
	return sprites.Load(cfg.Assets.Dir, cfg.Assets.Scale)
}

type stopper interface{ Stop() }

type noProfile struct{}

func (noProfile) Stop() {}

// startProfile starts a pprof profile written to dir (current directory when
// empty). Unknown modes disable profiling.
func startProfile(mode, dir string) stopper {
	if dir == "" {
		dir = "."
	}
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath(dir), profile.NoShutdownHook)
	case "":
		return noProfile{}
	default:
		slog.Warn("unknown profile mode, profiling disabled", "mode", mode)
		return noProfile{}
	}
}
