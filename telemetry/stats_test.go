package telemetry

import (
	"math"
	"testing"
)

func TestComputeFitnessStatsPercentiles(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		p10, p50, p90 float64
	}{
		{"sample points", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, 5, 9},
		{"interpolated", []float64{4, 1, 3, 2}, 1, 2, 3.6},
		{"single", []float64{5}, 5, 5, 5},
		{"ties", []float64{3, 3, 3, 7}, 3, 3, 5.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := ComputeFitnessStats(tt.values)
			got := []float64{fs.P10, fs.P50, fs.P90}
			want := []float64{tt.p10, tt.p50, tt.p90}
			for i := range got {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("percentiles = %v, want %v", got, want)
					break
				}
			}
			if fs.P10 < fs.Min || fs.P90 > fs.Max {
				t.Errorf("percentiles %v outside [%v, %v]", got, fs.Min, fs.Max)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	// Unsorted on purpose; the input must not be reordered.
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	fs := ComputeFitnessStats(values)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", fs.Mean, 5.5},
		{"std", fs.Std, math.Sqrt(55.0 / 6.0)},
		{"min", fs.Min, 1},
		{"max", fs.Max, 10},
		{"p10", fs.P10, 1},
		{"p50", fs.P50, 5},
		{"p90", fs.P90, 9},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 0.001 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if values[0] != 10 || values[1] != 1 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestComputeFitnessStatsNegative(t *testing.T) {
	// Collisions push fitness below zero.
	fs := ComputeFitnessStats([]float64{-0.9, 2.3, 5.1})
	if fs.Min != -0.9 {
		t.Errorf("min = %v, want -0.9", fs.Min)
	}
	if fs.Max != 5.1 {
		t.Errorf("max = %v, want 5.1", fs.Max)
	}
	if math.Abs(fs.Mean-2.1666) > 0.001 {
		t.Errorf("mean = %v, want ~2.1667", fs.Mean)
	}
}

func TestComputeFitnessStatsEdgeCases(t *testing.T) {
	if fs := ComputeFitnessStats(nil); fs != (FitnessStats{}) {
		t.Errorf("empty input should return zero stats, got %+v", fs)
	}

	fs := ComputeFitnessStats([]float64{2.3})
	if fs.Std != 0 {
		t.Errorf("single value std = %v, want 0", fs.Std)
	}
	if fs.Mean != 2.3 || fs.P50 != 2.3 || fs.Min != 2.3 || fs.Max != 2.3 {
		t.Errorf("single value stats = %+v, want all 2.3", fs)
	}
}
