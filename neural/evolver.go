package neural

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/flappy/config"
)

// Evaluator assigns fitness to every individual of a generation.
type Evaluator func(ctx context.Context, population []*Individual) error

// EpochReport describes a generation after evaluation and speciation.
type EpochReport struct {
	Generation     int
	Fitness        []float64 // one per individual, population order
	Best           *Individual
	Champion       *Individual // best individual over the whole run
	Species        SpeciesStats
	TopSpecies     []SpeciesInfo // largest first
	SpeciesRemoved int
}

// reportedSpecies is how many of the largest species an epoch report lists.
const reportedSpecies = 3

// Evolver runs the NEAT loop: evaluate, speciate, select, reproduce.
type Evolver struct {
	opts    *neat.Options
	evo     config.EvolutionConfig
	rng     *rand.Rand
	idGen   *GenomeIDGenerator
	breeder *Breeder
	species *SpeciesManager

	population []*Individual
	generation int
	champion   *Individual

	// OnEpoch is called once per generation after speciation.
	OnEpoch func(EpochReport)
}

// NewEvolver creates an evolver with a fresh random population.
func NewEvolver(neatCfg *config.NEATConfig, evo *config.EvolutionConfig, rng *rand.Rand) *Evolver {
	opts := OptionsFromConfig(neatCfg)
	idGen := NewGenomeIDGenerator()

	e := &Evolver{
		opts:    opts,
		evo:     *evo,
		rng:     rng,
		idGen:   idGen,
		breeder: NewBreeder(opts, idGen, rng),
		species: NewSpeciesManager(opts),
	}

	e.population = make([]*Individual, 0, opts.PopSize)
	for i := 0; i < opts.PopSize; i++ {
		genome := CreateBrainGenome(idGen.NextID(), neatCfg.InitialConnectionProb, rng)
		e.population = append(e.population, NewIndividual(genome))
	}
	return e
}

// Population returns the current generation's individuals.
func (e *Evolver) Population() []*Individual { return e.population }

// Generation returns the number of generations evaluated so far.
func (e *Evolver) Generation() int { return e.generation }

// Champion returns the best individual seen so far, or nil before the first
// evaluation.
func (e *Evolver) Champion() *Individual { return e.champion }

// Species returns the species manager.
func (e *Evolver) Species() *SpeciesManager { return e.species }

// Run evolves until the generation limit, the fitness threshold or context
// cancellation. It returns the best individual seen.
func (e *Evolver) Run(ctx context.Context, evaluate Evaluator) (*Individual, error) {
	if len(e.population) == 0 {
		return nil, fmt.Errorf("empty population")
	}

	for e.evo.Generations <= 0 || e.generation < e.evo.Generations {
		if err := ctx.Err(); err != nil {
			return e.champion, err
		}

		if err := evaluate(ctx, e.population); err != nil {
			return e.champion, fmt.Errorf("evaluating generation %d: %w", e.generation+1, err)
		}

		report := e.endGeneration()
		slog.Info("epoch",
			"generation", report.Generation,
			"best_fitness", report.Best.Fitness(),
			"best_genome", report.Best.ID(),
			"champion_fitness", report.Champion.Fitness(),
			"species", report.Species.Count,
			"species_removed", report.SpeciesRemoved,
			"top_species", report.TopSpecies,
		)
		if e.OnEpoch != nil {
			e.OnEpoch(report)
		}

		if e.evo.FitnessThreshold > 0 && report.Best.Fitness() >= e.evo.FitnessThreshold {
			slog.Info("fitness threshold reached",
				"generation", report.Generation,
				"fitness", report.Best.Fitness(),
				"threshold", e.evo.FitnessThreshold,
			)
			return e.champion, nil
		}

		if err := e.reproduce(); err != nil {
			return e.champion, fmt.Errorf("reproducing generation %d: %w", e.generation, err)
		}
	}
	return e.champion, nil
}

// endGeneration speciates the evaluated population and updates the champion.
func (e *Evolver) endGeneration() EpochReport {
	e.generation++

	e.species.Speciate(e.population)
	removed := e.species.EndGeneration()

	fitness := make([]float64, len(e.population))
	var best *Individual
	for i, ind := range e.population {
		fitness[i] = ind.Fitness()
		if best == nil || ind.Fitness() > best.Fitness() {
			best = ind
		}
	}

	if best != nil && (e.champion == nil || best.Fitness() > e.champion.Fitness()) {
		// Keep a private copy; best's genome may be mutated in place later.
		genome, err := CloneGenome(best.Genome, best.ID())
		if err == nil {
			e.champion = NewIndividual(genome)
			e.champion.SetFitness(best.Fitness())
			e.champion.SpeciesID = best.SpeciesID
		}
	}

	return EpochReport{
		Generation:     e.generation,
		Fitness:        fitness,
		Best:           best,
		Champion:       e.champion,
		Species:        e.species.GetStats(),
		TopSpecies:     e.species.GetTopSpecies(reportedSpecies),
		SpeciesRemoved: removed,
	}
}

// reproduce replaces the population with the next generation. Offspring
// are shared between species in proportion to their average fitness; each
// species keeps its elites and breeds from its surviving fraction.
func (e *Evolver) reproduce() error {
	species := e.species.Species
	if len(species) == 0 {
		return fmt.Errorf("no species left")
	}

	quotas := e.allocateOffspring(species)
	e.protectBestSpecies(species, quotas)
	next := make([]*Individual, 0, e.opts.PopSize)

	for i, sp := range species {
		quota := quotas[i]
		if quota == 0 {
			continue
		}

		// Members are sorted best first by EndGeneration.
		elites := min(e.evo.Elitism, len(sp.Members), quota)
		for _, m := range sp.Members[:elites] {
			genome, err := CloneGenome(m.Genome, e.idGen.NextID())
			if err != nil {
				return err
			}
			next = append(next, NewIndividual(genome))
		}

		survivors := int(math.Ceil(e.opts.SurvivalThresh * float64(len(sp.Members))))
		survivors = max(1, min(survivors, len(sp.Members)))
		pool := sp.Members[:survivors]

		for n := elites; n < quota; n++ {
			parent1 := pool[e.rng.Intn(len(pool))]
			var parent2 *Individual
			if len(pool) > 1 {
				parent2 = pool[e.rng.Intn(len(pool))]
			}
			child, err := e.breeder.CreateOffspring(parent1, parent2)
			if err != nil {
				return err
			}
			next = append(next, NewIndividual(child))
			sp.OffspringCount++
		}
	}

	e.population = next
	return nil
}

// allocateOffspring splits PopSize between species by shifted average
// fitness. Rounding leftovers go to the fittest species first.
func (e *Evolver) allocateOffspring(species []*Species) []int {
	quotas := make([]int, len(species))
	size := e.opts.PopSize

	minAvg := math.Inf(1)
	for _, sp := range species {
		minAvg = math.Min(minAvg, sp.AvgFitness)
	}

	shares := make([]float64, len(species))
	total := 0.0
	for i, sp := range species {
		// Fitness can be negative; shift so the weakest species still gets a share.
		shares[i] = sp.AvgFitness - minAvg + 1
		total += shares[i]
	}

	assigned := 0
	for i := range species {
		quotas[i] = int(math.Floor(shares[i] / total * float64(size)))
		assigned += quotas[i]
	}

	order := make([]int, len(species))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return species[order[a]].AvgFitness > species[order[b]].AvgFitness
	})
	for i := 0; assigned < size; i = (i + 1) % len(order) {
		quotas[order[i]]++
		assigned++
	}

	return quotas
}

// protectBestSpecies makes sure the species holding the best individual gets
// at least one slot, taken from the species with the largest quota.
func (e *Evolver) protectBestSpecies(species []*Species, quotas []int) {
	best, largest := -1, -1
	bestFitness := math.Inf(-1)
	for i, sp := range species {
		if champ := sp.Champion(); champ != nil && champ.Fitness() > bestFitness {
			best, bestFitness = i, champ.Fitness()
		}
		if largest < 0 || quotas[i] > quotas[largest] {
			largest = i
		}
	}
	if best < 0 || quotas[best] > 0 || quotas[largest] < 2 {
		return
	}
	quotas[best]++
	quotas[largest]--
}
