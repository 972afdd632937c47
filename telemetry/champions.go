package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/neural"
)

// ChampionEntry is a genome that topped its generation.
type ChampionEntry struct {
	Generation int                 `json:"generation"`
	GenomeID   int                 `json:"genome_id"`
	Fitness    float64             `json:"fitness"`
	Score      int                 `json:"score"`
	SpeciesID  int                 `json:"species_id"`
	Genome     neural.GenomeRecord `json:"genome"`
}

// Champions keeps the fittest genomes of a run, best first.
type Champions struct {
	runID   string
	entries []ChampionEntry
	maxSize int
}

// championsJSON is the on-disk form of a champions file.
type championsJSON struct {
	RunID     string          `json:"run_id"`
	Champions []ChampionEntry `json:"champions"`
}

// NewChampions creates an empty champion list holding at most maxSize genomes.
func NewChampions(runID string, maxSize int) *Champions {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Champions{
		runID:   runID,
		entries: make([]ChampionEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider records ind as a candidate. A genome already in the list is only
// replaced by a fitter entry of itself. Returns true if the list changed.
func (c *Champions) Consider(generation, score int, ind *neural.Individual) bool {
	if ind == nil || ind.Genome == nil {
		return false
	}

	entry := ChampionEntry{
		Generation: generation,
		GenomeID:   ind.ID(),
		Fitness:    ind.Fitness(),
		Score:      score,
		SpeciesID:  ind.SpeciesID,
		Genome:     neural.EncodeGenome(ind.Genome),
	}

	for i, e := range c.entries {
		if e.GenomeID != entry.GenomeID {
			continue
		}
		if e.Fitness >= entry.Fitness {
			return false
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		break
	}

	c.entries = c.insertEntry(c.entries, entry)
	return c.contains(entry.GenomeID)
}

// insertEntry adds an entry, keeping the list sorted by fitness descending.
// If the list is full, the lowest-fitness entry is removed.
func (c *Champions) insertEntry(list []ChampionEntry, entry ChampionEntry) []ChampionEntry {
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].Fitness < entry.Fitness
	})

	if len(list) >= c.maxSize && idx >= c.maxSize {
		return list
	}

	list = append(list, ChampionEntry{})
	copy(list[idx+1:], list[idx:])
	list[idx] = entry

	if len(list) > c.maxSize {
		list = list[:c.maxSize]
	}
	return list
}

func (c *Champions) contains(genomeID int) bool {
	for _, e := range c.entries {
		if e.GenomeID == genomeID {
			return true
		}
	}
	return false
}

// Entries returns the champions, best first.
func (c *Champions) Entries() []ChampionEntry { return c.entries }

// Size returns the number of champions held.
func (c *Champions) Size() int { return len(c.entries) }

// RunID returns the run the champions belong to.
func (c *Champions) RunID() string { return c.runID }

// Best returns the fittest champion, or false if the list is empty.
func (c *Champions) Best() (ChampionEntry, bool) {
	if len(c.entries) == 0 {
		return ChampionEntry{}, false
	}
	return c.entries[0], true
}

// MarshalJSON serializes the champions with their run ID.
func (c *Champions) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(championsJSON{
		RunID:     c.runID,
		Champions: c.entries,
	}, "", "  ")
}

// LoadChampionsFromFile reads a champions JSON file. Entries are re-sorted and
// the capacity grows to fit the file.
func LoadChampionsFromFile(path string) (*Champions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading champions: %w", err)
	}

	var raw championsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing champions JSON: %w", err)
	}

	c := NewChampions(raw.RunID, len(raw.Champions))
	for _, e := range raw.Champions {
		if len(e.Genome.Nodes) == 0 {
			slog.Warn("champions_load: entry without genome, skipping", "genome_id", e.GenomeID)
			continue
		}
		c.entries = c.insertEntry(c.entries, e)
	}
	return c, nil
}

// Decode rebuilds the entry's genome.
func (e ChampionEntry) Decode() (*genetics.Genome, error) {
	genome, err := e.Genome.Decode()
	if err != nil {
		return nil, fmt.Errorf("champion %d: %w", e.GenomeID, err)
	}
	return genome, nil
}
