package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationRecord holds the summary of one evaluated generation.
type GenerationRecord struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	Outcome    string `csv:"outcome"`

	// Simulation
	Score      int     `csv:"score"`
	BestScore  int     `csv:"best_score"`
	Ticks      int     `csv:"ticks"`
	Spawned    int     `csv:"spawned"`
	Skipped    int     `csv:"skipped"`
	DurationMS float64 `csv:"duration_ms"`

	// Fitness distribution over the whole population
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessMin  float64 `csv:"fitness_min"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Evolution
	Species         int     `csv:"species"`
	SpeciesRemoved  int     `csv:"species_removed"`
	BestGenome      int     `csv:"best_genome"`
	ChampionFitness float64 `csv:"champion_fitness"`
}

// FitnessStats summarizes a fitness distribution.
type FitnessStats struct {
	Mean float64
	Std  float64
	Min  float64
	P10  float64
	P50  float64
	P90  float64
	Max  float64
}

// SetFitness copies a fitness summary into the record's columns.
func (r *GenerationRecord) SetFitness(fs FitnessStats) {
	r.FitnessMean = fs.Mean
	r.FitnessStd = fs.Std
	r.FitnessMin = fs.Min
	r.FitnessP10 = fs.P10
	r.FitnessP50 = fs.P50
	r.FitnessP90 = fs.P90
	r.FitnessMax = fs.Max
}

// Fitness returns the record's fitness columns.
func (r GenerationRecord) Fitness() FitnessStats {
	return FitnessStats{
		Mean: r.FitnessMean,
		Std:  r.FitnessStd,
		Min:  r.FitnessMin,
		P10:  r.FitnessP10,
		P50:  r.FitnessP50,
		P90:  r.FitnessP90,
		Max:  r.FitnessMax,
	}
}

// ComputeFitnessStats calculates mean, sample standard deviation, extremes
// and percentiles. Percentiles interpolate the empirical distribution
// (stat.LinInterp), so they never leave the sample's range. A single value
// has zero deviation.
func ComputeFitnessStats(values []float64) FitnessStats {
	n := len(values)
	if n == 0 {
		return FitnessStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	fs := FitnessStats{
		Mean: stat.Mean(sorted, nil),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		P10:  stat.Quantile(0.10, stat.LinInterp, sorted, nil),
		P50:  stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P90:  stat.Quantile(0.90, stat.LinInterp, sorted, nil),
	}
	if n > 1 {
		fs.Std = stat.StdDev(sorted, nil)
	}
	return fs
}

// LogValue implements slog.LogValuer for structured logging.
func (s FitnessStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("max", s.Max),
	)
}

// LogStats logs the generation record using slog.
func (r GenerationRecord) LogStats() {
	slog.Info("generation stats",
		"generation", r.Generation,
		"outcome", r.Outcome,
		"score", r.Score,
		"best_score", r.BestScore,
		"ticks", r.Ticks,
		"spawned", r.Spawned,
		"best_fitness", r.FitnessMax,
		"fitness", r.Fitness(),
		"species", r.Species,
		"species_removed", r.SpeciesRemoved,
		"champion_fitness", r.ChampionFitness,
	)
}
