package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/flappy/config"
)

func TestParamVectorApplyExtract(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Min + 0.25*(spec.Max-spec.Min)
	}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-values[i]) > 1e-12 {
			t.Errorf("%s = %v, want %v", spec.Path, got[i], values[i])
		}
	}
	if cfg.NEAT.CompatThreshold != values[len(values)-1] {
		t.Errorf("compat_threshold not applied: %v", cfg.NEAT.CompatThreshold)
	}
}

func TestParamVectorClampOnApply(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 100
	}
	pv.ApplyToConfig(cfg, values)

	for i, v := range pv.ExtractFromConfig(cfg) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s = %v, want clamped to %v", pv.Specs[i].Path, v, pv.Specs[i].Max)
		}
	}
}

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.ExtractFromConfig(config.Default())

	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s round trip = %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestComputeFitnessOrdering(t *testing.T) {
	fe := &FitnessEvaluator{maxGenerations: 10, baseConfig: config.Default()}

	solvedSlow := fe.computeFitness(runResult{generations: 10, solved: true})
	unsolvedClose := fe.computeFitness(runResult{generations: 10, bestScore: 50})
	unsolvedFar := fe.computeFitness(runResult{generations: 10, bestScore: 1})

	if !(solvedSlow < unsolvedClose && unsolvedClose < unsolvedFar) {
		t.Errorf("want solved < close < far, got %v, %v, %v", solvedSlow, unsolvedClose, unsolvedFar)
	}
	t.Logf("solved=%.2f close=%.2f far=%.2f", solvedSlow, unsolvedClose, unsolvedFar)
}
