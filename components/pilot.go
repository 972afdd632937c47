package components

// Observation is what a controller sees each tick: the avatar's height and
// its vertical distance to both edges of the tracked gap.
type Observation [3]float64

// Decider maps an observation to a jump signal. Outputs above the configured
// threshold make the avatar jump.
type Decider interface {
	Decide(obs Observation) (float64, error)
}

// Genome is the view of an evolved individual the simulation needs. Fitness
// is written straight into it while the generation runs.
type Genome interface {
	ID() int
	Fitness() float64
	SetFitness(v float64)
	AddFitness(delta float64)
}

// Pilot ties an avatar to its controller and fitness accumulator.
type Pilot struct {
	Index  int // spawn order within the generation
	Genome Genome
	Brain  Decider
	Dead   bool // removed from play; the entity is dropped at the next compaction
}

// Reward adds delta to the pilot's fitness.
func (p *Pilot) Reward(delta float64) {
	p.Genome.AddFitness(delta)
}
