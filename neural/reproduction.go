package neural

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9  // Probability of perturbing vs replacing weights
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Maximum attempts to find a new connection
	initialInnovNum     = 1000 // Starting innovation number to avoid conflicts
)

// hiddenActivators are the activation functions new hidden nodes pick from.
var hiddenActivators = []neatmath.NodeActivationType{
	neatmath.SigmoidSteepenedActivation,
	neatmath.TanhActivation,
	neatmath.LinearActivation,
}

// GenomeIDGenerator generates unique genome IDs.
type GenomeIDGenerator struct {
	nextID       int
	nextInnovNum int64
}

// NewGenomeIDGenerator creates a new ID generator.
func NewGenomeIDGenerator() *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       1,
		nextInnovNum: initialInnovNum,
	}
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// Breeder produces offspring genomes. All randomness comes from its rng so
// a seeded run is reproducible.
type Breeder struct {
	opts  *neat.Options
	idGen *GenomeIDGenerator
	rng   *rand.Rand
}

// NewBreeder creates a breeder.
func NewBreeder(opts *neat.Options, idGen *GenomeIDGenerator, rng *rand.Rand) *Breeder {
	return &Breeder{opts: opts, idGen: idGen, rng: rng}
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number.
// The more fit parent contributes disjoint/excess genes.
func (b *Breeder) CrossoverGenomes(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	var primary, secondary *genetics.Genome
	if fitness1 >= fitness2 {
		primary, secondary = parent1, parent2
	} else {
		primary, secondary = parent2, parent1
	}

	primaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range primary.Genes {
		primaryGenes[gene.InnovationNum] = gene
	}

	secondaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range secondary.Genes {
		secondaryGenes[gene.InnovationNum] = gene
	}

	innovSet := make(map[int64]bool)
	for innov := range primaryGenes {
		innovSet[innov] = true
	}
	for innov := range secondaryGenes {
		innovSet[innov] = true
	}

	// Sort innovations for deterministic ordering
	innovations := make([]int64, 0, len(innovSet))
	for innov := range innovSet {
		innovations = append(innovations, innov)
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNode := copyNode(node)
		childNodeMap[childNode.Id] = childNode
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNode := copyNode(node)
			childNodeMap[childNode.Id] = childNode
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))

	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selectedGene *genetics.Gene
		enabled := true

		switch {
		case pGene != nil && sGene != nil:
			// Matching gene - randomly select from either parent
			if b.rng.Float64() < 0.5 {
				selectedGene = pGene
			} else {
				selectedGene = sGene
			}
			// Disabled in either parent: usually stays disabled
			if (!pGene.IsEnabled || !sGene.IsEnabled) && b.rng.Float64() < 0.75 {
				enabled = false
			} else {
				enabled = true
			}
		case pGene != nil:
			// Disjoint/excess from more fit parent - always include
			selectedGene = pGene
			enabled = pGene.IsEnabled
		case fitness1 == fitness2 && sGene != nil:
			// Equal fitness - include disjoint/excess from secondary with 50% chance
			if b.rng.Float64() < 0.5 {
				selectedGene = sGene
				enabled = sGene.IsEnabled
			}
		}

		if selectedGene == nil {
			continue
		}

		inNode := childNodeMap[selectedGene.Link.InNode.Id]
		outNode := childNodeMap[selectedGene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}

		childGene := genetics.NewGeneWithTrait(
			nil,
			selectedGene.Link.ConnectionWeight,
			inNode,
			outNode,
			selectedGene.Link.IsRecurrent,
			selectedGene.InnovationNum,
			selectedGene.MutationNum,
		)
		childGene.IsEnabled = enabled
		childGenes = append(childGenes, childGene)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	return genetics.NewGenome(childID, nil, childNodes, childGenes), nil
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

func (b *Breeder) mutateWeights(genome *genetics.Genome) {
	power := b.opts.WeightMutPower
	for _, gene := range genome.Genes {
		if b.rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (b.rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = b.rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float64) float64 {
	if w > maxConnectionWeight {
		return maxConnectionWeight
	}
	if w < -maxConnectionWeight {
		return -maxConnectionWeight
	}
	return w
}

// addNode splits a random enabled link with a new hidden node.
func (b *Breeder) addNode(genome *genetics.Genome) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		if gene.IsEnabled {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	geneToSplit := enabledGenes[b.rng.Intn(len(enabledGenes))]
	geneToSplit.IsEnabled = false

	maxNodeID := 0
	for _, node := range genome.Nodes {
		if node.Id > maxNodeID {
			maxNodeID = node.Id
		}
	}

	newNode := network.NewNNode(maxNodeID+1, network.HiddenNeuron)
	newNode.ActivationType = hiddenActivators[b.rng.Intn(len(hiddenActivators))]

	// old_in -> new_node (weight 1.0), new_node -> old_out (old weight)
	gene1 := genetics.NewGeneWithTrait(
		nil,
		1.0,
		geneToSplit.Link.InNode,
		newNode,
		false,
		b.idGen.NextInnovation(),
		0,
	)
	gene2 := genetics.NewGeneWithTrait(
		nil,
		geneToSplit.Link.ConnectionWeight,
		newNode,
		geneToSplit.Link.OutNode,
		false,
		b.idGen.NextInnovation(),
		0,
	)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, gene1, gene2)
	return true
}

// addLink connects a source (sensor or hidden) to a target (hidden or output)
// that are not yet connected.
func (b *Breeder) addLink(genome *genetics.Genome) bool {
	var inputs, outputs, hidden []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			inputs = append(inputs, node)
		case network.OutputNeuron:
			outputs = append(outputs, node)
		case network.HiddenNeuron:
			hidden = append(hidden, node)
		}
	}

	sources := append(append([]*network.NNode{}, inputs...), hidden...)
	targets := append(append([]*network.NNode{}, hidden...), outputs...)
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool)
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[b.rng.Intn(len(sources))]
		target := targets[b.rng.Intn(len(targets))]

		if source.Id == target.Id {
			continue
		}
		if existing[connectionKey(source.Id, target.Id)] {
			continue
		}

		newGene := genetics.NewGeneWithTrait(
			nil,
			b.rng.Float64()*4-2,
			source,
			target,
			false,
			b.idGen.NextInnovation(),
			0,
		)
		genome.Genes = append(genome.Genes, newGene)
		return true
	}

	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

// toggleEnable flips a random gene, refusing to leave an output unconnected.
func (b *Breeder) toggleEnable(genome *genetics.Genome) {
	if len(genome.Genes) == 0 {
		return
	}

	gene := genome.Genes[b.rng.Intn(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled

	if !gene.IsEnabled {
		outNode := gene.Link.OutNode
		hasEnabled := false
		for _, g := range genome.Genes {
			if g.Link.OutNode.Id == outNode.Id && g.IsEnabled {
				hasEnabled = true
				break
			}
		}
		if !hasEnabled {
			gene.IsEnabled = true
		}
	}
}

// Mutate applies weight and structural mutations according to the options.
// Returns whether anything changed.
func (b *Breeder) Mutate(genome *genetics.Genome) (bool, error) {
	if genome == nil {
		return false, fmt.Errorf("cannot mutate nil genome")
	}

	mutated := false

	if b.rng.Float64() < b.opts.MutateLinkWeightsProb {
		b.mutateWeights(genome)
		mutated = true
	}

	if b.rng.Float64() < b.opts.MutateAddNodeProb {
		if b.addNode(genome) {
			mutated = true
		}
	}

	if b.rng.Float64() < b.opts.MutateAddLinkProb {
		if b.addLink(genome) {
			mutated = true
		}
	}

	if b.rng.Float64() < b.opts.MutateToggleEnableProb {
		b.toggleEnable(genome)
		mutated = true
	}

	return mutated, nil
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, fmt.Errorf("cannot clone nil genome")
	}

	nodeMap := make(map[int]*network.NNode)
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// CreateOffspring produces a child from two parents: crossover unless the
// mutate-only roll wins, then mutation unless the mate-only roll wins.
func (b *Breeder) CreateOffspring(parent1, parent2 *Individual) (*genetics.Genome, error) {
	childID := b.idGen.NextID()

	var child *genetics.Genome
	var err error
	if parent2 == nil || b.rng.Float64() < b.opts.MutateOnlyProb {
		child, err = CloneGenome(parent1.Genome, childID)
		if err != nil {
			return nil, fmt.Errorf("clone failed: %w", err)
		}
		if _, err := b.Mutate(child); err != nil {
			return nil, fmt.Errorf("mutation failed: %w", err)
		}
		return child, nil
	}

	child, err = b.CrossoverGenomes(parent1.Genome, parent2.Genome, parent1.Fitness(), parent2.Fitness(), childID)
	if err != nil {
		return nil, fmt.Errorf("crossover failed: %w", err)
	}
	if b.rng.Float64() >= b.opts.MateOnlyProb {
		if _, err := b.Mutate(child); err != nil {
			return nil, fmt.Errorf("mutation failed: %w", err)
		}
	}
	return child, nil
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := make(map[int64]*genetics.Gene)
	for _, gene := range g1.Genes {
		genes1[gene.InnovationNum] = gene
	}

	genes2 := make(map[int64]*genetics.Gene)
	for _, gene := range g2.Genes {
		genes2[gene.InnovationNum] = gene
	}

	maxInnov1 := int64(0)
	for innov := range genes1 {
		if innov > maxInnov1 {
			maxInnov1 = innov
		}
	}

	maxInnov2 := int64(0)
	for innov := range genes2 {
		if innov > maxInnov2 {
			maxInnov2 = innov
		}
	}

	matching := 0
	disjoint := 0
	excess := 0
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}

	for innov := range genes2 {
		if _, exists := genes1[innov]; !exists {
			if innov > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1 // Don't normalize small genomes
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}
