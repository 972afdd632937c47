package neural

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// NodeRecord is the serialized form of a genome node.
type NodeRecord struct {
	ID         int   `json:"id"`
	Type       uint8 `json:"type"`
	Activation uint8 `json:"activation"`
}

// GeneRecord is the serialized form of a genome link gene.
type GeneRecord struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Recurrent  bool    `json:"recurrent,omitempty"`
	Innovation int64   `json:"innovation"`
	Mutation   float64 `json:"mutation,omitempty"`
}

// GenomeRecord is a self-contained, JSON-friendly copy of a genome.
type GenomeRecord struct {
	ID    int          `json:"id"`
	Nodes []NodeRecord `json:"nodes"`
	Genes []GeneRecord `json:"genes"`
}

// EncodeGenome converts a genome to its record form.
func EncodeGenome(genome *genetics.Genome) GenomeRecord {
	rec := GenomeRecord{
		ID:    genome.Id,
		Nodes: make([]NodeRecord, 0, len(genome.Nodes)),
		Genes: make([]GeneRecord, 0, len(genome.Genes)),
	}
	for _, node := range genome.Nodes {
		rec.Nodes = append(rec.Nodes, NodeRecord{
			ID:         node.Id,
			Type:       uint8(node.NeuronType),
			Activation: uint8(node.ActivationType),
		})
	}
	for _, gene := range genome.Genes {
		rec.Genes = append(rec.Genes, GeneRecord{
			In:         gene.Link.InNode.Id,
			Out:        gene.Link.OutNode.Id,
			Weight:     gene.Link.ConnectionWeight,
			Enabled:    gene.IsEnabled,
			Recurrent:  gene.Link.IsRecurrent,
			Innovation: gene.InnovationNum,
			Mutation:   gene.MutationNum,
		})
	}
	return rec
}

// Decode rebuilds the genome. Genes referring to unknown nodes are an error.
func (rec GenomeRecord) Decode() (*genetics.Genome, error) {
	nodeMap := make(map[int]*network.NNode, len(rec.Nodes))
	nodes := make([]*network.NNode, 0, len(rec.Nodes))
	for _, n := range rec.Nodes {
		if _, dup := nodeMap[n.ID]; dup {
			return nil, fmt.Errorf("genome %d: duplicate node %d", rec.ID, n.ID)
		}
		node := network.NewNNode(n.ID, network.NodeNeuronType(n.Type))
		node.ActivationType = neatmath.NodeActivationType(n.Activation)
		nodeMap[n.ID] = node
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Id < nodes[j].Id })

	genes := make([]*genetics.Gene, 0, len(rec.Genes))
	for _, g := range rec.Genes {
		in, ok := nodeMap[g.In]
		if !ok {
			return nil, fmt.Errorf("genome %d: gene %d references unknown node %d", rec.ID, g.Innovation, g.In)
		}
		out, ok := nodeMap[g.Out]
		if !ok {
			return nil, fmt.Errorf("genome %d: gene %d references unknown node %d", rec.ID, g.Innovation, g.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, g.Weight, in, out, g.Recurrent, g.Innovation, g.Mutation)
		gene.IsEnabled = g.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(rec.ID, nil, nodes, genes), nil
}

// MarshalGenome encodes a genome as JSON.
func MarshalGenome(genome *genetics.Genome) ([]byte, error) {
	data, err := json.Marshal(EncodeGenome(genome))
	if err != nil {
		return nil, fmt.Errorf("marshaling genome %d: %w", genome.Id, err)
	}
	return data, nil
}

// UnmarshalGenome decodes a genome from JSON.
func UnmarshalGenome(data []byte) (*genetics.Genome, error) {
	var rec GenomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling genome: %w", err)
	}
	return rec.Decode()
}
