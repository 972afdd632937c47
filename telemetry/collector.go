package telemetry

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/neural"
)

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// SimulationSummary is what the playfield reports about one generation.
type SimulationSummary struct {
	Outcome   string
	Score     int
	BestScore int
	Ticks     int
	Spawned   int
	Skipped   int
	Duration  time.Duration
}

// Collector joins the simulation summary and the evolver's epoch report of a
// generation into one record, then writes it out.
type Collector struct {
	runID     string
	out       *OutputManager
	perf      *PerfCollector
	champions *Champions
	lastPerf  PerfStats

	// Summary of the generation being evaluated
	pending    SimulationSummary
	hasPending bool
}

// NewCollector creates a collector. out and perf may be nil.
func NewCollector(runID string, out *OutputManager, perf *PerfCollector, championsSize int) *Collector {
	return &Collector{
		runID:     runID,
		out:       out,
		perf:      perf,
		champions: NewChampions(runID, championsSize),
	}
}

// RecordSimulation stores the playfield summary of the current generation.
func (c *Collector) RecordSimulation(s SimulationSummary) {
	c.pending = s
	c.hasPending = true
}

// Flush builds the generation record from the pending summary and report,
// updates the champions and writes every output. Write errors are joined;
// the record is returned either way.
func (c *Collector) Flush(report neural.EpochReport) (GenerationRecord, error) {
	rec := GenerationRecord{
		RunID:          c.runID,
		Generation:     report.Generation,
		Species:        report.Species.Count,
		SpeciesRemoved: report.SpeciesRemoved,
	}
	if c.hasPending {
		rec.Outcome = c.pending.Outcome
		rec.Score = c.pending.Score
		rec.BestScore = c.pending.BestScore
		rec.Ticks = c.pending.Ticks
		rec.Spawned = c.pending.Spawned
		rec.Skipped = c.pending.Skipped
		rec.DurationMS = float64(c.pending.Duration.Microseconds()) / 1000
	}
	rec.SetFitness(ComputeFitnessStats(report.Fitness))
	if report.Best != nil {
		rec.BestGenome = report.Best.ID()
	}
	if report.Champion != nil {
		rec.ChampionFitness = report.Champion.Fitness()
	}

	changed := c.champions.Consider(report.Generation, rec.Score, report.Best)

	rec.LogStats()

	var errs []error
	errs = append(errs, c.out.WriteGeneration(rec))
	if c.perf != nil {
		c.lastPerf = c.perf.Flush()
		errs = append(errs, c.out.WritePerf(c.lastPerf, report.Generation))
	}
	if changed {
		errs = append(errs, c.out.WriteChampions(c.champions))
	}

	c.pending = SimulationSummary{}
	c.hasPending = false

	return rec, errors.Join(errs...)
}

// Champions returns the run's champion list.
func (c *Collector) Champions() *Champions { return c.champions }

// LastPerf returns the timing breakdown of the last flushed generation.
func (c *Collector) LastPerf() PerfStats { return c.lastPerf }

// RunID returns the run identifier stamped on every output.
func (c *Collector) RunID() string { return c.runID }
