package neural

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

func newTestEvolver(t *testing.T, popSize, generations int, seed int64) *Evolver {
	t.Helper()
	cfg := config.Default()
	cfg.NEAT.PopSize = popSize
	cfg.Evolution.Generations = generations
	cfg.Evolution.FitnessThreshold = 0
	return NewEvolver(&cfg.NEAT, &cfg.Evolution, rand.New(rand.NewSource(seed)))
}

// evaluateByOutput scores each individual by its network's output on a fixed
// observation, so fitness depends only on the genome.
func evaluateByOutput(_ context.Context, pop []*Individual) error {
	for _, ind := range pop {
		brain, err := ind.Brain()
		if err != nil {
			ind.SetFitness(0)
			continue
		}
		out, err := brain.Decide(components.Observation{0.3, 0.1, 0.2})
		if err != nil {
			ind.SetFitness(0)
			continue
		}
		ind.SetFitness(out * 10)
	}
	return nil
}

func TestEvolverRun(t *testing.T) {
	e := newTestEvolver(t, 20, 5, 1)

	var reports []EpochReport
	e.OnEpoch = func(r EpochReport) {
		reports = append(reports, r)
		if len(r.Fitness) != 20 {
			t.Errorf("generation %d: %d fitness values, want 20", r.Generation, len(r.Fitness))
		}
	}

	champ, err := e.Run(context.Background(), evaluateByOutput)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if e.Generation() != 5 || len(reports) != 5 {
		t.Fatalf("generations = %d, reports = %d, want 5", e.Generation(), len(reports))
	}
	if len(e.Population()) != 20 {
		t.Errorf("population = %d, want 20", len(e.Population()))
	}
	if champ == nil {
		t.Fatal("no champion")
	}

	for _, r := range reports {
		if len(r.TopSpecies) == 0 || len(r.TopSpecies) > reportedSpecies || len(r.TopSpecies) > r.Species.Count {
			t.Fatalf("generation %d: %d top species of %d", r.Generation, len(r.TopSpecies), r.Species.Count)
		}
		if r.TopSpecies[0].Size != r.Species.LargestSize {
			t.Errorf("generation %d: first top species size %d, largest %d", r.Generation, r.TopSpecies[0].Size, r.Species.LargestSize)
		}
	}

	best := 0.0
	for _, r := range reports {
		if r.Best.Fitness() > best {
			best = r.Best.Fitness()
		}
	}
	if champ.Fitness() != best {
		t.Errorf("champion fitness = %v, want best seen %v", champ.Fitness(), best)
	}
	t.Logf("champion %d fitness %.3f after %d generations", champ.ID(), champ.Fitness(), e.Generation())
}

func TestEvolverElitismKeepsBest(t *testing.T) {
	e := newTestEvolver(t, 15, 4, 2)

	var bests []float64
	e.OnEpoch = func(r EpochReport) { bests = append(bests, r.Best.Fitness()) }

	if _, err := e.Run(context.Background(), evaluateByOutput); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := 1; i < len(bests); i++ {
		if bests[i] < bests[i-1] {
			t.Errorf("generation %d best %v dropped below %v", i+1, bests[i], bests[i-1])
		}
	}
}

func TestEvolverFitnessThreshold(t *testing.T) {
	e := newTestEvolver(t, 5, 10, 3)
	e.evo.FitnessThreshold = 100

	calls := 0
	_, err := e.Run(context.Background(), func(_ context.Context, pop []*Individual) error {
		calls++
		for _, ind := range pop {
			ind.SetFitness(150)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("evaluations = %d, want 1", calls)
	}
}

func TestEvolverStopsOnCancel(t *testing.T) {
	e := newTestEvolver(t, 5, 0, 4)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := e.Run(ctx, func(_ context.Context, pop []*Individual) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return evaluateByOutput(ctx, pop)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 3 {
		t.Errorf("evaluations = %d, want 3", calls)
	}
}

func TestEvolverEvaluatorError(t *testing.T) {
	e := newTestEvolver(t, 5, 3, 5)
	boom := errors.New("boom")

	_, err := e.Run(context.Background(), func(context.Context, []*Individual) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestEvolverEmptyPopulation(t *testing.T) {
	e := newTestEvolver(t, 0, 3, 6)
	if _, err := e.Run(context.Background(), evaluateByOutput); err == nil {
		t.Error("expected error for empty population")
	}
}

func TestEvolverDeterministic(t *testing.T) {
	run := func() []float64 {
		e := newTestEvolver(t, 12, 4, 42)
		var out []float64
		e.OnEpoch = func(r EpochReport) { out = append(out, r.Fitness...) }
		if _, err := e.Run(context.Background(), evaluateByOutput); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fitness %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAllocateOffspring(t *testing.T) {
	e := newTestEvolver(t, 10, 1, 7)
	species := []*Species{
		{ID: 1, AvgFitness: -1},
		{ID: 2, AvgFitness: 5},
		{ID: 3, AvgFitness: 2},
	}

	quotas := e.allocateOffspring(species)
	total := 0
	for _, q := range quotas {
		total += q
	}
	if total != 10 {
		t.Errorf("quotas %v sum to %d, want 10", quotas, total)
	}
	if quotas[1] <= quotas[2] || quotas[2] <= quotas[0] {
		t.Errorf("quotas %v not ordered by fitness", quotas)
	}
}
