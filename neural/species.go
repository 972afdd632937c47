package neural

import (
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Species represents a group of genetically similar individuals.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []*Individual
	BestFitness    float64 // Best fitness ever reached by a member
	AvgFitness     float64 // Mean fitness of the current members
	Age            int     // Generations since species was created
	Staleness      int     // Generations without improving BestFitness
	OffspringCount int     // Total offspring produced by this species
}

// Champion returns the fittest current member, or nil if the species is empty.
func (sp *Species) Champion() *Individual {
	var best *Individual
	for _, m := range sp.Members {
		if best == nil || m.Fitness() > best.Fitness() {
			best = m
		}
	}
	return best
}

// sortMembers orders members by fitness, best first. Ties keep genome ID
// order so runs are reproducible.
func (sp *Species) sortMembers() {
	sort.SliceStable(sp.Members, func(i, j int) bool {
		fi, fj := sp.Members[i].Fitness(), sp.Members[j].Fitness()
		if fi != fj {
			return fi > fj
		}
		return sp.Members[i].ID() < sp.Members[j].ID()
	})
}

// SpeciesManager manages speciation for the population.
type SpeciesManager struct {
	Species       []*Species
	opts          *neat.Options
	nextSpeciesID int
	generation    int
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options) *SpeciesManager {
	return &SpeciesManager{
		Species:       make([]*Species, 0),
		opts:          opts,
		nextSpeciesID: 1,
	}
}

// Speciate clears membership and places every individual in the first
// species whose representative is within the compatibility threshold,
// creating new species as needed. Species left empty are dropped.
func (sm *SpeciesManager) Speciate(population []*Individual) {
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	for _, ind := range population {
		ind.SpeciesID = sm.AssignSpecies(ind.Genome)
		sm.addMember(ind)
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 {
			active = append(active, sp)
		}
	}
	sm.Species = active
}

// AssignSpecies finds or creates a species for the given genome.
// Returns the species ID.
func (sm *SpeciesManager) AssignSpecies(genome *genetics.Genome) int {
	if genome == nil {
		return 0
	}

	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp.ID
		}
	}

	newSpecies := &Species{
		ID:             sm.nextSpeciesID,
		Representative: genome,
	}
	sm.nextSpeciesID++
	sm.Species = append(sm.Species, newSpecies)

	return newSpecies.ID
}

func (sm *SpeciesManager) addMember(ind *Individual) {
	if sp := sm.find(ind.SpeciesID); sp != nil {
		sp.Members = append(sp.Members, ind)
	}
}

func (sm *SpeciesManager) find(id int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == id {
			return sp
		}
	}
	return nil
}

// EndGeneration records the evaluated fitness of every species, ages them
// and drops stagnant ones. The species holding the overall best individual
// is never dropped. Returns the number of species removed.
func (sm *SpeciesManager) EndGeneration() int {
	sm.generation++

	var bestSpecies *Species
	bestFitness := 0.0

	for _, sp := range sm.Species {
		sp.Age++
		sp.sortMembers()

		total := 0.0
		for _, m := range sp.Members {
			total += m.Fitness()
		}
		if len(sp.Members) > 0 {
			sp.AvgFitness = total / float64(len(sp.Members))
		}

		sp.Staleness++
		if champ := sp.Champion(); champ != nil {
			if champ.Fitness() > sp.BestFitness || sp.Age == 1 {
				sp.BestFitness = champ.Fitness()
				sp.Staleness = 0
			}
			if bestSpecies == nil || champ.Fitness() > bestFitness {
				bestSpecies = sp
				bestFitness = champ.Fitness()
			}
			// Next generation compares against this generation's champion.
			sp.Representative = champ.Genome
		}
	}

	return sm.RemoveStaleSpecies(bestSpecies)
}

// RemoveStaleSpecies removes species that have no members or are too stale.
// keep is exempt from the staleness rule.
func (sm *SpeciesManager) RemoveStaleSpecies(keep *Species) int {
	maxStaleness := sm.opts.DropOffAge
	active := make([]*Species, 0, len(sm.Species))

	for _, sp := range sm.Species {
		if len(sp.Members) == 0 {
			continue
		}
		if sp != keep && maxStaleness > 0 && sp.Staleness >= maxStaleness {
			continue
		}
		active = append(active, sp)
	}

	removed := len(sm.Species) - len(active)
	sm.Species = active
	return removed
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count            int
	TotalMembers     int
	LargestSize      int
	SmallestSize     int
	AverageStaleness float64
	Generation       int
	TotalOffspring   int
	BestFitness      float64
}

// SpeciesInfo contains display information about a single species.
type SpeciesInfo struct {
	ID        int     `json:"id"`
	Size      int     `json:"size"`
	BestFit   float64 `json:"best_fitness"`
	AvgFit    float64 `json:"avg_fitness"`
	Age       int     `json:"age"`
	Staleness int     `json:"staleness"`
	Offspring int     `json:"offspring"`
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	if len(sm.Species) == 0 {
		return SpeciesStats{Generation: sm.generation}
	}

	stats := SpeciesStats{
		Count:        len(sm.Species),
		SmallestSize: int(^uint(0) >> 1), // Max int
		Generation:   sm.generation,
	}

	totalStaleness := 0
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.TotalMembers += size
		stats.TotalOffspring += sp.OffspringCount

		if sp.BestFitness > stats.BestFitness {
			stats.BestFitness = sp.BestFitness
		}
		if size > stats.LargestSize {
			stats.LargestSize = size
		}
		if size < stats.SmallestSize && size > 0 {
			stats.SmallestSize = size
		}

		totalStaleness += sp.Staleness
	}

	stats.AverageStaleness = float64(totalStaleness) / float64(stats.Count)

	if stats.SmallestSize == int(^uint(0)>>1) {
		stats.SmallestSize = 0
	}

	return stats
}

// GetTopSpecies returns info about the top N species by size.
func (sm *SpeciesManager) GetTopSpecies(n int) []SpeciesInfo {
	if len(sm.Species) == 0 {
		return nil
	}

	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)

	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})

	if n > len(sorted) {
		n = len(sorted)
	}

	result := make([]SpeciesInfo, n)
	for i := 0; i < n; i++ {
		sp := sorted[i]
		result[i] = SpeciesInfo{
			ID:        sp.ID,
			Size:      len(sp.Members),
			BestFit:   sp.BestFitness,
			AvgFit:    sp.AvgFitness,
			Age:       sp.Age,
			Staleness: sp.Staleness,
			Offspring: sp.OffspringCount,
		}
	}

	return result
}
