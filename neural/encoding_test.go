package neural

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/pthm-cable/flappy/components"
)

func TestGenomeJSONPreservesBehaviour(t *testing.T) {
	b := newTestBreeder(11)
	genome := CreateBrainGenome(5, 1.0, rand.New(rand.NewSource(11)))
	b.addNode(genome)
	b.addLink(genome)

	data, err := MarshalGenome(genome)
	if err != nil {
		t.Fatalf("MarshalGenome failed: %v", err)
	}
	decoded, err := UnmarshalGenome(data)
	if err != nil {
		t.Fatalf("UnmarshalGenome failed: %v", err)
	}

	if decoded.Id != genome.Id || len(decoded.Nodes) != len(genome.Nodes) || len(decoded.Genes) != len(genome.Genes) {
		t.Fatalf("decoded shape (%d, %d nodes, %d genes) != original (%d, %d, %d)",
			decoded.Id, len(decoded.Nodes), len(decoded.Genes),
			genome.Id, len(genome.Nodes), len(genome.Genes))
	}

	orig, err := NewBrainController(genome)
	if err != nil {
		t.Fatalf("original does not build: %v", err)
	}
	copied, err := NewBrainController(decoded)
	if err != nil {
		t.Fatalf("decoded does not build: %v", err)
	}

	for _, obs := range []components.Observation{{350, 50, 120}, {100, 300, 470}, {700, 10, 5}} {
		want, _ := orig.Decide(obs)
		got, _ := copied.Decide(obs)
		if got != want {
			t.Errorf("obs %v: decoded output %v, want %v", obs, got, want)
		}
	}
}

func TestUnmarshalGenomeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad json", `{"id":`, "unmarshaling"},
		{"unknown node", `{"id":1,"nodes":[{"id":1,"type":1}],"genes":[{"in":1,"out":2,"weight":1,"enabled":true,"innovation":1}]}`, "unknown node 2"},
		{"duplicate node", `{"id":1,"nodes":[{"id":1},{"id":1}],"genes":[]}`, "duplicate node 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalGenome([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
