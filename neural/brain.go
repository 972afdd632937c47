package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappy/components"
)

// biasInput is the constant loaded into the bias sensor.
const biasInput = 1.0

// BrainController wraps a goNEAT network for runtime evaluation.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
	depth   int
	sensors []float64
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome) (*BrainController, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for recurrent or degenerate networks
	}

	return &BrainController{
		Genome:  genome,
		network: phenotype,
		depth:   depth,
		sensors: make([]float64, BrainInputs),
	}, nil
}

// Decide runs the network on an observation and returns the jump signal.
// The network is flushed afterwards so every tick starts from rest.
func (b *BrainController) Decide(obs components.Observation) (float64, error) {
	copy(b.sensors, obs[:])
	b.sensors[ObservationInputs] = biasInput

	if err := b.network.LoadSensors(b.sensors); err != nil {
		return 0, fmt.Errorf("failed to load sensors: %w", err)
	}

	for i := 0; i < b.depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return 0, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	if _, err := b.network.Flush(); err != nil {
		return 0, fmt.Errorf("flush failed: %w", err)
	}

	if len(outputs) == 0 {
		return 0, fmt.Errorf("network has no outputs")
	}
	return outputs[0], nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// brainNodes creates the sensor and output nodes shared by every brain
// genome. IDs run 1..BrainInputs for sensors (bias last), then the outputs.
func brainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, BrainInputs+BrainOutputs)

	for i := 1; i <= ObservationInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	bias := network.NewNNode(BrainInputs, network.BiasNeuron)
	bias.ActivationType = neatmath.LinearActivation
	nodes = append(nodes, bias)

	for i := 1; i <= BrainOutputs; i++ {
		node := network.NewNNode(BrainInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}
	return nodes
}

// CreateBrainGenome creates a new brain genome with the specified ID.
// Each sensor connects to each output with probability connectionProb;
// innovation numbers are assigned to every possible link either way so
// they line up across the initial population.
func CreateBrainGenome(id int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := brainNodes()

	genes := make([]*genetics.Gene, 0, BrainInputs*BrainOutputs)
	innovNum := int64(1)

	for i := 0; i < BrainInputs; i++ {
		for j := 0; j < BrainOutputs; j++ {
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				weight := rng.Float64()*4 - 2 // [-2, 2]
				gene := genetics.NewGeneWithTrait(
					nil,                  // trait
					weight,               // weight
					nodes[i],             // input node
					nodes[BrainInputs+j], // output node
					false,                // recurrent
					currentInnov,         // innovation number
					0,                    // mutation number
				)
				genes = append(genes, gene)
			}
		}
	}

	// Ensure at least some connections exist
	if len(genes) == 0 {
		gene := genetics.NewGeneWithTrait(
			nil,
			rng.Float64()*2-1,
			nodes[0],
			nodes[BrainInputs],
			false,
			1,
			0,
		)
		genes = append(genes, gene)
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateFixedBrainGenome creates a fully connected brain genome with the
// given weights, one per sensor in node order. Useful for tests and replays.
func CreateFixedBrainGenome(id int, weights [BrainInputs]float64) *genetics.Genome {
	nodes := brainNodes()

	genes := make([]*genetics.Gene, 0, BrainInputs)
	for i, w := range weights {
		gene := genetics.NewGeneWithTrait(nil, w, nodes[i], nodes[BrainInputs], false, int64(i+1), 0)
		genes = append(genes, gene)
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}
