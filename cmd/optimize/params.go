package main

import (
	"github.com/pthm-cable/flappy/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(*config.NEATConfig) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable NEAT parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Weight mutation
			{Name: "weight_mut_power", Path: "neat.weight_mut_power", Min: 0.5, Max: 5.0,
				field: func(n *config.NEATConfig) *float64 { return &n.WeightMutPower }},
			{Name: "link_weights_prob", Path: "neat.mutate_link_weights_prob", Min: 0.2, Max: 1.0,
				field: func(n *config.NEATConfig) *float64 { return &n.MutateLinkWeightsProb }},
			// Structural mutation
			{Name: "add_node_prob", Path: "neat.mutate_add_node_prob", Min: 0.0, Max: 0.2,
				field: func(n *config.NEATConfig) *float64 { return &n.MutateAddNodeProb }},
			{Name: "add_link_prob", Path: "neat.mutate_add_link_prob", Min: 0.0, Max: 0.3,
				field: func(n *config.NEATConfig) *float64 { return &n.MutateAddLinkProb }},
			// Reproduction
			{Name: "mutate_only_prob", Path: "neat.mutate_only_prob", Min: 0.0, Max: 0.8,
				field: func(n *config.NEATConfig) *float64 { return &n.MutateOnlyProb }},
			{Name: "survival_thresh", Path: "neat.survival_thresh", Min: 0.1, Max: 0.6,
				field: func(n *config.NEATConfig) *float64 { return &n.SurvivalThresh }},
			// Speciation
			{Name: "compat_threshold", Path: "neat.compat_threshold", Min: 0.5, Max: 6.0,
				field: func(n *config.NEATConfig) *float64 { return &n.CompatThreshold }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.field(&cfg.NEAT) = clamped[i]
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(&cfg.NEAT)
	}
	return v
}
