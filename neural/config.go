package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/flappy/config"
)

// ObservationInputs is the number of observation values fed to the network.
const ObservationInputs = 3

// BrainInputs is the number of sensor nodes: the observation plus a bias.
const BrainInputs = ObservationInputs + 1

// BrainOutputs is the number of outputs from the brain network (the jump signal).
const BrainOutputs = 1

// DefaultNEATOptions returns NEAT options tuned for the flappy controller.
func DefaultNEATOptions() *neat.Options {
	return &neat.Options{
		// Trait mutation
		TraitParamMutProb:  0.5,
		TraitMutationPower: 1.0,

		// Weight mutation
		WeightMutPower: 2.5,

		// Structural mutation rates
		MutateAddNodeProb:      0.03,
		MutateAddLinkProb:      0.05,
		MutateToggleEnableProb: 0.01,

		// Weight mutation probability
		MutateLinkWeightsProb: 0.8,
		MutateOnlyProb:        0.25,
		MutateRandomTraitProb: 0.1,

		// Mating probabilities
		MateMultipointProb:    0.6,
		MateMultipointAvgProb: 0.4,
		MateSinglepointProb:   0.0,
		MateOnlyProb:          0.2,
		RecurOnlyProb:         0.0,

		// Speciation
		CompatThreshold: 3.0,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.5,

		// Species management
		DropOffAge:      20,
		SurvivalThresh:  0.2,
		AgeSignificance: 1.0,

		PopSize: 50,
	}
}

// OptionsFromConfig overlays the configured NEAT settings on the defaults.
func OptionsFromConfig(cfg *config.NEATConfig) *neat.Options {
	opts := DefaultNEATOptions()
	opts.PopSize = cfg.PopSize
	opts.WeightMutPower = cfg.WeightMutPower
	opts.MutateAddNodeProb = cfg.MutateAddNodeProb
	opts.MutateAddLinkProb = cfg.MutateAddLinkProb
	opts.MutateToggleEnableProb = cfg.MutateToggleEnableProb
	opts.MutateLinkWeightsProb = cfg.MutateLinkWeightsProb
	opts.MutateOnlyProb = cfg.MutateOnlyProb
	opts.MateOnlyProb = cfg.MateOnlyProb
	opts.CompatThreshold = cfg.CompatThreshold
	opts.DisjointCoeff = cfg.DisjointCoeff
	opts.ExcessCoeff = cfg.ExcessCoeff
	opts.MutdiffCoeff = cfg.MutdiffCoeff
	opts.DropOffAge = cfg.DropOffAge
	opts.SurvivalThresh = cfg.SurvivalThresh
	return opts
}
