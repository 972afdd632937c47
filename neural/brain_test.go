package neural

import (
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappy/components"
)

func TestCreateBrainGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(1, 0.3, rng)

	if genome == nil {
		t.Fatal("CreateBrainGenome returned nil")
	}

	if genome.Id != 1 {
		t.Errorf("expected genome ID 1, got %d", genome.Id)
	}

	expectedNodes := BrainInputs + BrainOutputs
	if len(genome.Nodes) != expectedNodes {
		t.Errorf("expected %d nodes, got %d", expectedNodes, len(genome.Nodes))
	}

	if genome.Nodes[BrainInputs-1].NeuronType != network.BiasNeuron {
		t.Errorf("last sensor should be the bias, got type %v", genome.Nodes[BrainInputs-1].NeuronType)
	}

	if len(genome.Genes) == 0 {
		t.Error("expected at least 1 gene, got 0")
	}

	t.Logf("Created genome with %d nodes and %d genes", len(genome.Nodes), len(genome.Genes))
}

func TestCreateBrainGenomeFullyConnected(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(1, 1.0, rng)

	expectedGenes := BrainInputs * BrainOutputs
	if len(genome.Genes) != expectedGenes {
		t.Errorf("expected %d genes, got %d", expectedGenes, len(genome.Genes))
	}
}

func TestBrainControllerDecide(t *testing.T) {
	tests := []struct {
		name    string
		weights [BrainInputs]float64
		obs     components.Observation
		jump    bool
	}{
		{"bias pushes up", [BrainInputs]float64{0, 0, 0, 1}, components.Observation{350, 50, 120}, true},
		{"bias pushes down", [BrainInputs]float64{0, 0, 0, -1}, components.Observation{350, 50, 120}, false},
		{"low bird jumps", [BrainInputs]float64{0.01, 0, 0, -2}, components.Observation{600, 50, 120}, true},
		{"high bird waits", [BrainInputs]float64{0.01, 0, 0, -2}, components.Observation{100, 50, 120}, false},
		{"near gap bottom", [BrainInputs]float64{0, 0.02, -0.02, 0}, components.Observation{350, 150, 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brain, err := NewBrainController(CreateFixedBrainGenome(1, tt.weights))
			if err != nil {
				t.Fatalf("NewBrainController failed: %v", err)
			}

			out, err := brain.Decide(tt.obs)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if out < 0 || out > 1 {
				t.Errorf("output %v outside [0, 1]", out)
			}
			if got := out > 0.5; got != tt.jump {
				t.Errorf("output %v: jump = %v, want %v", out, got, tt.jump)
			}
		})
	}
}

func TestBrainControllerIsStateless(t *testing.T) {
	brain, err := NewBrainController(CreateFixedBrainGenome(1, [BrainInputs]float64{0.01, -0.02, 0.03, 0.5}))
	if err != nil {
		t.Fatalf("NewBrainController failed: %v", err)
	}

	obs := components.Observation{300, 40, 130}
	first, err := brain.Decide(obs)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if _, err := brain.Decide(components.Observation{700, 500, 10}); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	again, err := brain.Decide(obs)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if first != again {
		t.Errorf("same observation gave %v then %v", first, again)
	}
}

func TestBrainControllerCounts(t *testing.T) {
	brain, err := NewBrainController(CreateFixedBrainGenome(1, [BrainInputs]float64{1, 1, 1, 1}))
	if err != nil {
		t.Fatalf("NewBrainController failed: %v", err)
	}

	if brain.NodeCount() != BrainInputs+BrainOutputs {
		t.Errorf("node count = %d, want %d", brain.NodeCount(), BrainInputs+BrainOutputs)
	}
	if brain.LinkCount() != BrainInputs {
		t.Errorf("link count = %d, want %d", brain.LinkCount(), BrainInputs)
	}
}

func TestIndividualImplementsGenome(t *testing.T) {
	ind := NewIndividual(CreateFixedBrainGenome(7, [BrainInputs]float64{0, 0, 0, 1}))

	ind.SetFitness(1.5)
	ind.AddFitness(0.5)
	if ind.Fitness() != 2 {
		t.Errorf("fitness = %v, want 2", ind.Fitness())
	}
	if ind.ID() != 7 {
		t.Errorf("ID = %d, want 7", ind.ID())
	}

	brain, err := BuildBrain(ind)
	if err != nil {
		t.Fatalf("BuildBrain failed: %v", err)
	}
	out, err := brain.Decide(components.Observation{})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if out <= 0.5 {
		t.Errorf("bias-only brain output %v, want > 0.5", out)
	}
}
