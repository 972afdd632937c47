package neural

import (
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/components"
)

// Individual is one member of the population: a genome plus the fitness the
// simulation writes into it.
type Individual struct {
	Genome    *genetics.Genome
	SpeciesID int

	fitness float64
}

var _ components.Genome = (*Individual)(nil)

// NewIndividual wraps a genome with zero fitness.
func NewIndividual(genome *genetics.Genome) *Individual {
	return &Individual{Genome: genome}
}

func (ind *Individual) ID() int                  { return ind.Genome.Id }
func (ind *Individual) Fitness() float64         { return ind.fitness }
func (ind *Individual) SetFitness(v float64)     { ind.fitness = v }
func (ind *Individual) AddFitness(delta float64) { ind.fitness += delta }

// Brain builds a controller for the individual's genome.
func (ind *Individual) Brain() (components.Decider, error) {
	brain, err := NewBrainController(ind.Genome)
	if err != nil {
		return nil, err
	}
	return brain, nil
}

// BuildBrain adapts Individual.Brain to the simulation's builder signature.
func BuildBrain(ind *Individual) (components.Decider, error) {
	return ind.Brain()
}
