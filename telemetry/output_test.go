package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("", "run")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// Every method is a no-op on a nil manager.
	if err := om.WriteGeneration(GenerationRecord{}); err != nil {
		t.Errorf("WriteGeneration: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Errorf("WritePerf: %v", err)
	}
	if err := om.WriteChampions(NewChampions("run", 1)); err != nil {
		t.Errorf("WriteChampions: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Errorf("WriteConfig: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("Dir = %q, want empty", om.Dir())
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOutputManagerGenerations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir, "run-7")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	recs := []GenerationRecord{
		{Generation: 1, Outcome: "extinct", Score: 0, Ticks: 23, Spawned: 50},
		{Generation: 2, Outcome: "succeeded", Score: 51, BestScore: 51, Ticks: 4000, Spawned: 50},
	}
	recs[1].SetFitness(ComputeFitnessStats([]float64{2.3, 400.1}))
	for _, r := range recs {
		if err := om.WriteGeneration(r); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatalf("reading generations.csv: %v", err)
	}
	if n := strings.Count(string(data), "run_id"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}

	var got []*GenerationRecord
	if err := gocsv.UnmarshalBytes(data, &got); err != nil {
		t.Fatalf("parsing generations.csv: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	for i, r := range got {
		if r.RunID != "run-7" {
			t.Errorf("row %d run_id = %q, want run-7", i, r.RunID)
		}
		if r.Generation != recs[i].Generation || r.Outcome != recs[i].Outcome {
			t.Errorf("row %d = gen %d %s, want gen %d %s",
				i, r.Generation, r.Outcome, recs[i].Generation, recs[i].Outcome)
		}
	}
	if got[1].FitnessMax != 400.1 || got[1].BestScore != 51 {
		t.Errorf("row 2 fitness_max=%v best_score=%d, want 400.1 and 51", got[1].FitnessMax, got[1].BestScore)
	}
}

func TestOutputManagerPerfConfigChampions(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, "run-8")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	var stats PerfStats
	stats.Ticks = 5
	stats.Total = time.Millisecond
	stats.AvgTick = 200 * time.Microsecond
	stats.Phases[PhaseDecide] = 600 * time.Microsecond
	for gen := 1; gen <= 2; gen++ {
		if err := om.WritePerf(stats, gen); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	c := NewChampions("run-8", 2)
	c.Consider(1, 4, testIndividual(3, 21))
	if err := om.WriteChampions(c); err != nil {
		t.Fatalf("WriteChampions: %v", err)
	}

	perfData, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	var rows []*PerfStatsCSV
	if err := gocsv.UnmarshalBytes(perfData, &rows); err != nil {
		t.Fatalf("parsing perf.csv: %v", err)
	}
	if len(rows) != 2 || rows[1].Generation != 2 || rows[0].DecidePct != 60 || rows[0].AvgTickUS != 200 {
		t.Errorf("perf rows = %+v %+v", rows[0], rows[len(rows)-1])
	}

	loadedCfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("reloading config.yaml: %v", err)
	}
	if loadedCfg.Obstacle.Gap != config.Default().Obstacle.Gap {
		t.Errorf("config round trip gap = %d", loadedCfg.Obstacle.Gap)
	}

	loaded, err := LoadChampionsFromFile(filepath.Join(dir, "champions.json"))
	if err != nil {
		t.Fatalf("loading champions.json: %v", err)
	}
	if loaded.Size() != 1 {
		t.Errorf("champions size = %d, want 1", loaded.Size())
	}
}

func TestCollectorFlush(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, "run-9")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	perf := NewPerfCollector()
	c := NewCollector("run-9", om, perf, 3)

	for i := 0; i < 3; i++ {
		perf.StartTick()
		perf.StartPhase(PhaseDecide)
		perf.EndTick()
	}

	best := testIndividual(5, 12.4)
	c.RecordSimulation(SimulationSummary{
		Outcome:   "extinct",
		Score:     2,
		BestScore: 2,
		Ticks:     240,
		Spawned:   3,
		Duration:  1500 * time.Microsecond,
	})

	rec, err := c.Flush(neural.EpochReport{
		Generation: 1,
		Fitness:    []float64{12.4, 2.3, -0.9},
		Best:       best,
		Champion:   best,
		Species:    neural.SpeciesStats{Count: 2},
	})
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if rec.RunID != "run-9" || rec.Outcome != "extinct" || rec.Score != 2 || rec.Ticks != 240 {
		t.Errorf("record = %+v", rec)
	}
	if rec.DurationMS != 1.5 {
		t.Errorf("duration_ms = %v, want 1.5", rec.DurationMS)
	}
	if rec.FitnessMax != 12.4 || rec.FitnessMin != -0.9 {
		t.Errorf("fitness range = [%v, %v], want [-0.9, 12.4]", rec.FitnessMin, rec.FitnessMax)
	}
	if rec.BestGenome != 5 || rec.ChampionFitness != 12.4 || rec.Species != 2 {
		t.Errorf("evolution columns = genome %d champion %v species %d", rec.BestGenome, rec.ChampionFitness, rec.Species)
	}

	if c.Champions().Size() != 1 {
		t.Errorf("champions size = %d, want 1", c.Champions().Size())
	}
	if _, err := os.Stat(filepath.Join(dir, "champions.json")); err != nil {
		t.Errorf("champions.json not written: %v", err)
	}
	if c.LastPerf().Ticks != 3 {
		t.Errorf("perf ticks = %d, want 3", c.LastPerf().Ticks)
	}

	// The pending summary is consumed by Flush.
	rec, err = c.Flush(neural.EpochReport{Generation: 2})
	if err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if rec.Outcome != "" || rec.Ticks != 0 {
		t.Errorf("second record reused the old summary: %+v", rec)
	}
	if c.LastPerf().Ticks != 0 {
		t.Errorf("perf ticks carried into the next generation: %d", c.LastPerf().Ticks)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("run IDs should differ")
	}
	if len(a) != 36 {
		t.Errorf("run ID %q is not a UUID string", a)
	}
}
