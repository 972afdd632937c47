package main

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/sprites"
	"github.com/pthm-cable/flappy/systems"
)

// FitnessEvaluator runs headless evolutions and scores a parameter vector by
// how quickly it produces a genome that clears the success score.
type FitnessEvaluator struct {
	params         *ParamVector
	maxGenerations int
	seeds          []int64
	baseConfig     *config.Config

	sil         *systems.Silhouettes
	groundWidth int

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestChampion *neural.Individual
	lastSolved   int // seeds solved in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. maxTicks caps every generation
// so a near-perfect population cannot stall an evaluation.
func NewFitnessEvaluator(params *ParamVector, maxGenerations, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	cfg := *baseCfg
	cfg.Generation.MaxTicks = maxTicks
	cfg.Evolution.Generations = maxGenerations
	// Generations end on success; the fitness threshold would stop a run early
	// for the wrong reason.
	cfg.Evolution.FitnessThreshold = 0

	atlas := sprites.Procedural()
	return &FitnessEvaluator{
		params:         params,
		maxGenerations: maxGenerations,
		seeds:          seeds,
		baseConfig:     &cfg,
		sil:            atlas.Silhouettes(),
		groundWidth:    atlas.GroundWidth(),
		bestFitness:    math.Inf(1),
	}
}

// BestChampion returns the champion of the best evaluation so far.
func (fe *FitnessEvaluator) BestChampion() *neural.Individual {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestChampion
}

// LastSolved returns how many seeds the most recent evaluation solved.
func (fe *FitnessEvaluator) LastSolved() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSolved
}

// runResult holds the results from a single evolution run.
type runResult struct {
	generations int // generations evaluated
	solved      bool
	bestScore   int
	champion    *neural.Individual
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runEvolution(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	solved := 0
	var champion *neural.Individual
	for _, r := range results {
		total += fe.computeFitness(r)
		if r.solved {
			solved++
		}
		if r.champion != nil && (champion == nil || r.champion.Fitness() > champion.Fitness()) {
			champion = r.champion
		}
	}
	avg := total / float64(len(fe.seeds))

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestChampion = champion
	}
	fe.lastSolved = solved
	fe.mu.Unlock()

	return avg
}

// runEvolution evolves from scratch until a generation succeeds or the
// generation limit is reached.
func (fe *FitnessEvaluator) runEvolution(x []float64, seed int64) runResult {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)

	rng := rand.New(rand.NewSource(seed))
	pop := game.NewPopulation[*neural.Individual](
		&cfg, game.NewSession(), fe.sil, fe.groundWidth, neural.BuildBrain,
		game.PopulationOptions{Rand: rng},
	)
	evolver := neural.NewEvolver(&cfg.NEAT, &cfg.Evolution, rng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := runResult{}
	champion, err := evolver.Run(ctx, func(_ context.Context, population []*neural.Individual) error {
		res := pop.RunGeneration(population)
		if res.Outcome == game.Succeeded {
			result.solved = true
			cancel()
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("evolution failed", "seed", seed, "error", err)
	}

	result.generations = evolver.Generation()
	result.bestScore = pop.Session().BestScore()
	result.champion = champion
	return result
}

// computeFitness maps a run to a cost. A solved run costs the generations it
// took; an unsolved one costs more than any solved run, less the closer its
// best score came to the success score.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	if r.solved {
		return float64(r.generations)
	}
	target := float64(fe.baseConfig.Generation.SuccessScore + 1)
	progress := math.Min(float64(r.bestScore)/target, 1)
	return float64(fe.maxGenerations) + 2 - progress
}
