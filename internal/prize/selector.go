package prize

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"scratchcard/internal/models"
)

// RandSource abstracts the uniform draw so selection can be tested
// deterministically.
type RandSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

// Float64 returns a uniform value in [0, 1).
func (CryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	// 53 random bits give every representable step in [0, 1).
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// Selector draws one entry from a weighted catalog. Entries occupy
// contiguous bands of [0, 1) in catalog order, each band as wide as the
// entry's share of the total weight. A draw on a band boundary belongs to
// the upper band.
type Selector struct {
	entries []models.PrizeEntry
	rng     RandSource
}

// NewSelector creates a selector over the given entries. A nil source falls
// back to CryptoSource.
func NewSelector(entries []models.PrizeEntry, rng RandSource) *Selector {
	if rng == nil {
		rng = CryptoSource{}
	}
	return &Selector{entries: entries, rng: rng}
}

// NewDefaultSelector creates a selector over the fixed catalog.
func NewDefaultSelector(rng RandSource) *Selector {
	return NewSelector(Catalog(), rng)
}

// Select draws one prize. It panics if the catalog is empty.
func (s *Selector) Select() models.PrizeEntry {
	return s.entries[s.Index(s.rng.Float64())]
}

// Index maps a draw r in [0, 1) to a catalog index. Values outside the
// interval are clamped.
func (s *Selector) Index(r float64) int {
	if math.IsNaN(r) || r < 0 {
		r = 0
	}

	total := s.totalWeight()
	if total <= 0 {
		return 0
	}

	cumulative := 0
	last := 0
	for i, e := range s.entries {
		if e.Weight <= 0 {
			continue
		}
		cumulative += e.Weight
		last = i
		// Dividing exact integers keeps band edges identical to their
		// decimal literals (0.25, 0.45, 0.60).
		if r < float64(cumulative)/float64(total) {
			return i
		}
	}

	return last
}

// Reachable reports, per catalog index, whether a draw can ever land on it.
func (s *Selector) Reachable() []bool {
	out := make([]bool, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Weight > 0
	}
	return out
}

func (s *Selector) totalWeight() int {
	total := 0
	for _, e := range s.entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	return total
}
