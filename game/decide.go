package game

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// decisionPool evaluates controllers for the whole roster. Controllers are
// read-only queries, so above the threshold they run on several goroutines;
// results are applied afterwards on the calling goroutine in roster order.
type decisionPool struct {
	enabled    bool
	threshold  int
	numWorkers int

	obs     []components.Observation
	outputs []float64
	errs    []error
}

func newDecisionPool(cfg *config.ParallelConfig) *decisionPool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	threshold := cfg.Threshold
	if threshold < 1 {
		threshold = 1
	}
	return &decisionPool{
		enabled:    cfg.Enabled,
		threshold:  threshold,
		numWorkers: workers,
	}
}

// decide queries every controller against the tracked obstacle and applies
// the jumps. A controller error counts as "no jump".
func (g *Generation) decide(tracked *components.Obstacle) {
	p := g.decisions
	n := len(g.roster)

	// Phase A: snapshot observations
	p.obs = p.obs[:0]
	for _, a := range g.roster {
		p.obs = append(p.obs, observe(a.avatar, tracked))
	}
	if cap(p.outputs) < n {
		p.outputs = make([]float64, n)
		p.errs = make([]error, n)
	}
	p.outputs = p.outputs[:n]
	p.errs = p.errs[:n]

	// Phase B: evaluate
	if !p.enabled || n < p.threshold || p.numWorkers < 2 {
		g.decideChunk(0, n)
	} else {
		g.decideParallel(n)
	}

	// Phase C: apply in roster order
	law := &g.cfg.Avatar
	for i, a := range g.roster {
		if err := p.errs[i]; err != nil {
			slog.Debug("decision failed", "genome", a.pilot.Genome.ID(), "error", err)
			continue
		}
		if p.outputs[i] > g.cfg.Generation.JumpThreshold {
			a.avatar.Jump(law)
		}
	}
}

// decideParallel splits the roster into one contiguous chunk per worker.
func (g *Generation) decideParallel(n int) {
	numWorkers := g.decisions.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			g.decideChunk(start, end)
		}(start, end)
	}
	wg.Wait()
}

// decideChunk evaluates roster entries [start, end). Each index is written by
// exactly one goroutine.
func (g *Generation) decideChunk(start, end int) {
	p := g.decisions
	for i := start; i < end; i++ {
		p.outputs[i], p.errs[i] = g.roster[i].pilot.Brain.Decide(p.obs[i])
	}
}
