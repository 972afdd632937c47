// Package main re-runs a saved champion genome and reports how it scores.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/renderer"
	"github.com/pthm-cable/flappy/sprites"
	"github.com/pthm-cable/flappy/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	championsPath := flag.String("champions", "champions.json", "Champions file written by a run")
	index := flag.Int("index", 0, "Champion to replay (0 = best)")
	runs := flag.Int("runs", 5, "Number of replays with different obstacle layouts")
	seed := flag.Int64("seed", 1, "RNG seed for obstacle layouts")
	maxTicks := flag.Int("max-ticks", 20000, "Tick cap per replay (0 = use config)")
	window := flag.Bool("window", false, "Watch the replay in a window")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *maxTicks > 0 {
		cfg.Generation.MaxTicks = *maxTicks
	}

	champions, err := telemetry.LoadChampionsFromFile(*championsPath)
	if err != nil {
		slog.Error("failed to load champions", "error", err)
		os.Exit(1)
	}
	entries := champions.Entries()
	if *index < 0 || *index >= len(entries) {
		slog.Error("champion index out of range", "index", *index, "available", len(entries))
		os.Exit(1)
	}
	entry := entries[*index]

	genome, err := entry.Decode()
	if err != nil {
		slog.Error("failed to decode champion", "error", err)
		os.Exit(1)
	}

	brain, err := neural.NewBrainController(genome)
	if err != nil {
		slog.Error("champion does not build a network", "error", err)
		os.Exit(1)
	}
	fmt.Printf("network: %d nodes, %d links\n", brain.NodeCount(), brain.LinkCount())

	atlas := sprites.Procedural()
	if cfg.Assets.Dir != "" {
		if atlas, err = sprites.Load(cfg.Assets.Dir, cfg.Assets.Scale); err != nil {
			slog.Error("failed to load sprites", "error", err)
			os.Exit(1)
		}
	}

	var platform game.Platform = game.Headless{}
	if *window {
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
			Rand:     rand.New(rand.NewSource(*seed)),
		},
	)

	ind := neural.NewIndividual(genome)
	total := 0
	for i := 0; i < *runs; i++ {
		res := pop.RunGeneration([]*neural.Individual{ind})
		total += res.Score
		fmt.Printf("replay %d: outcome=%s score=%d ticks=%d fitness=%.1f\n",
			i+1, res.Outcome, res.Score, res.Ticks, ind.Fitness())
	}

	fmt.Printf("\ngenome %d (run %s, generation %d, recorded fitness %.1f)\n",
		entry.GenomeID, champions.RunID(), entry.Generation, entry.Fitness)
	if *runs > 0 {
		fmt.Printf("mean score %.2f, best %d over %d replays\n",
			float64(total)/float64(*runs), pop.Session().BestScore(), *runs)
	}
}
