package systems

import (
	"math/rand"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// ObstacleGenerator creates pipe pairs with a random gap height.
type ObstacleGenerator struct {
	rng        *rand.Rand
	gap        int
	minHeight  int
	maxHeight  int
	pipeHeight int
}

// NewObstacleGenerator creates a generator. pipeHeight is the height of the
// pipe image, used to hang the top pipe above the gap.
func NewObstacleGenerator(cfg *config.ObstacleConfig, pipeHeight int, rng *rand.Rand) *ObstacleGenerator {
	return &ObstacleGenerator{
		rng:        rng,
		gap:        cfg.Gap,
		minHeight:  cfg.MinHeight,
		maxHeight:  cfg.MaxHeight,
		pipeHeight: pipeHeight,
	}
}

// Spawn creates an obstacle at x with a gap height drawn from [minHeight, maxHeight).
func (g *ObstacleGenerator) Spawn(x int) components.Obstacle {
	height := g.minHeight + g.rng.Intn(g.maxHeight-g.minHeight)
	return components.Obstacle{
		X:      x,
		Height: height,
		Top:    height - g.pipeHeight,
		Bottom: height + g.gap,
	}
}
