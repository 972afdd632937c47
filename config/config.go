// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Avatar     AvatarConfig     `yaml:"avatar"`
	Obstacle   ObstacleConfig   `yaml:"obstacle"`
	Ground     GroundConfig     `yaml:"ground"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Generation GenerationConfig `yaml:"generation"`
	NEAT       NEATConfig       `yaml:"neat"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Assets     AssetsConfig     `yaml:"assets"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// WorldConfig holds the playfield layout.
type WorldConfig struct {
	GroundY     int `yaml:"ground_y"`      // Top of the ground strip; avatars touching it are removed
	SpawnX      int `yaml:"spawn_x"`       // x where new obstacles appear
	FirstSpawnX int `yaml:"first_spawn_x"` // x of the first obstacle of each generation
}

// AvatarConfig holds the avatar motion law. These constants shape the fitness
// landscape; change them together or not at all.
type AvatarConfig struct {
	StartX        int     `yaml:"start_x"`
	StartY        float64 `yaml:"start_y"`
	JumpVelocity  float64 `yaml:"jump_velocity"`  // Velocity set by a jump (negative = up)
	Gravity       float64 `yaml:"gravity"`        // Coefficient of t² in the displacement law
	MaxFall       float64 `yaml:"max_fall"`       // Terminal displacement per tick
	RiseBoost     float64 `yaml:"rise_boost"`     // Extra upward displacement while rising
	MaxTilt       float64 `yaml:"max_tilt"`       // Nose-up cap in degrees
	MinTilt       float64 `yaml:"min_tilt"`       // Nose-dive floor in degrees
	TiltDecay     float64 `yaml:"tilt_decay"`     // Degrees per tick while falling
	TiltHold      float64 `yaml:"tilt_hold"`      // Stay nose-up until this far below the jump height
	AnimationTime int     `yaml:"animation_time"` // Ticks per wing frame
}

// ObstacleConfig holds pipe generation parameters.
type ObstacleConfig struct {
	Gap       int `yaml:"gap"`
	Velocity  int `yaml:"velocity"`
	MinHeight int `yaml:"min_height"` // Inclusive lower bound of the gap height
	MaxHeight int `yaml:"max_height"` // Exclusive upper bound of the gap height
}

// GroundConfig holds ground scroll parameters.
type GroundConfig struct {
	Velocity int `yaml:"velocity"`
}

// FitnessConfig holds the fitness deltas reported to the evolver.
type FitnessConfig struct {
	Survive   float64 `yaml:"survive"`   // Per tick alive
	Collision float64 `yaml:"collision"` // Applied when hitting a pipe
	Pass      float64 `yaml:"pass"`      // Granted to every survivor when a pipe is passed
}

// GenerationConfig holds per-generation control parameters.
type GenerationConfig struct {
	JumpThreshold float64 `yaml:"jump_threshold"` // Decision output above this jumps
	SuccessScore  int     `yaml:"success_score"`  // Generation ends once score exceeds this
	MaxTicks      int     `yaml:"max_ticks"`      // 0 = unlimited
}

// NEATConfig holds the options handed to the NEAT library. The simulation
// core never reads these.
type NEATConfig struct {
	PopSize                int     `yaml:"pop_size"`
	WeightMutPower         float64 `yaml:"weight_mut_power"`
	MutateAddNodeProb      float64 `yaml:"mutate_add_node_prob"`
	MutateAddLinkProb      float64 `yaml:"mutate_add_link_prob"`
	MutateToggleEnableProb float64 `yaml:"mutate_toggle_enable_prob"`
	MutateLinkWeightsProb  float64 `yaml:"mutate_link_weights_prob"`
	MutateOnlyProb         float64 `yaml:"mutate_only_prob"`
	MateOnlyProb           float64 `yaml:"mate_only_prob"`
	CompatThreshold        float64 `yaml:"compat_threshold"`
	DisjointCoeff          float64 `yaml:"disjoint_coeff"`
	ExcessCoeff            float64 `yaml:"excess_coeff"`
	MutdiffCoeff           float64 `yaml:"mutdiff_coeff"`
	DropOffAge             int     `yaml:"drop_off_age"`
	SurvivalThresh         float64 `yaml:"survival_thresh"`
	InitialConnectionProb  float64 `yaml:"initial_connection_prob"`
}

// EvolutionConfig holds the evolver's run limits.
type EvolutionConfig struct {
	Generations      int     `yaml:"generations"`
	FitnessThreshold float64 `yaml:"fitness_threshold"` // Stop once the best genome reaches this (0 = never)
	Elitism          int     `yaml:"elitism"`           // Champions copied unchanged per species
}

// ParallelConfig holds decision-phase fan-out settings.
type ParallelConfig struct {
	Enabled   bool `yaml:"enabled"`
	Threshold int  `yaml:"threshold"` // Minimum alive agents before fanning out
	Workers   int  `yaml:"workers"`   // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfLogEvery  int `yaml:"perf_log_every"` // Generations between perf log lines (0 = never)
	ChampionsSize int `yaml:"champions_size"` // Genomes kept in champions.json
}

// AssetsConfig points at optional sprite images.
type AssetsConfig struct {
	Dir   string `yaml:"dir"`   // Directory with bird1-3.png, pipe.png, base.png, bg.png (empty = procedural)
	Scale int    `yaml:"scale"` // Integer upscale applied to loaded images
}

// DerivedConfig holds values computed from other config fields.
type DerivedConfig struct {
	ScreenW32 int32 // raylib screen sizes
	ScreenH32 int32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects settings the simulation cannot run with.
func (c *Config) validate() error {
	if c.Obstacle.MaxHeight <= c.Obstacle.MinHeight {
		return fmt.Errorf("obstacle: max_height (%d) must exceed min_height (%d)",
			c.Obstacle.MaxHeight, c.Obstacle.MinHeight)
	}
	if c.Avatar.AnimationTime < 1 {
		return fmt.Errorf("avatar: animation_time must be at least 1, got %d", c.Avatar.AnimationTime)
	}
	if c.NEAT.PopSize < 0 {
		return fmt.Errorf("neat: pop_size must not be negative, got %d", c.NEAT.PopSize)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = int32(c.Screen.Width)
	c.Derived.ScreenH32 = int32(c.Screen.Height)

	if c.Assets.Scale < 1 {
		c.Assets.Scale = 1
	}
	if c.Parallel.Threshold < 1 {
		c.Parallel.Threshold = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
