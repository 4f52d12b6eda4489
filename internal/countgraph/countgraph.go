// Package countgraph implements the k-mer abundance oracle: a fixed-size
// count sketch built from sequence data, queried by the trimming filter.
//
// Counts live in ntables tables of distinct near-prime sizes, each indexed
// by an independent rolling hash over a k-wide window. A k-mer's abundance
// is the minimum cell value across tables; cells saturate at MaxCount.
// Queries are safe for unsynchronized concurrent use. Add is not.
package countgraph

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/chmduquesne/rollinghash"
	"github.com/chmduquesne/rollinghash/buzhash32"
)

// MaxCount is the saturation ceiling of a table cell.
const MaxCount = 255

// tableSeed seeds the generator for the per-table byte-substitution arrays.
// It is stored in saved graphs so the hash functions can be rebuilt on load.
const tableSeed int64 = 0x6b686d6572 // "khmer"

// Countgraph holds k-mer counts for abundance queries.
type Countgraph struct {
	ksize  int
	seed   int64
	tables [][]uint8
	htabs  [][256]uint32
}

// New returns an empty countgraph with ntables count tables sized to the
// largest primes at or below tablesize.
func New(ksize, tablesize, ntables int) *Countgraph {
	g := &Countgraph{
		ksize:  ksize,
		seed:   tableSeed,
		tables: make([][]uint8, ntables),
		htabs:  genHashTables(tableSeed, ntables),
	}
	for i, size := range primesBelow(tablesize, ntables) {
		g.tables[i] = make([]uint8, size)
	}
	return g
}

// Ksize returns the k-mer size the graph was built with.
func (g *Countgraph) Ksize() int { return g.ksize }

// Add counts every k-mer of s. Sequences shorter than k contribute nothing.
func (g *Countgraph) Add(s []byte) {
	g.roll(s, func(_ int, idx []uint64) bool {
		for j, ix := range idx {
			if g.tables[j][ix] < MaxCount {
				g.tables[j][ix]++
			}
		}
		return true
	})
}

// Get returns the abundance of a single k-mer; kmer must be exactly k long.
func (g *Countgraph) Get(kmer []byte) uint8 {
	var c uint8
	g.roll(kmer, func(_ int, idx []uint64) bool {
		c = g.count(idx)
		return false
	})
	return c
}

// MedianAbundance returns the median, minimum and maximum abundance over all
// k-mers of s. All three are zero when s is shorter than k.
func (g *Countgraph) MedianAbundance(s []byte) (median, min, max uint8) {
	var counts []uint8
	g.roll(s, func(_ int, idx []uint64) bool {
		counts = append(counts, g.count(idx))
		return true
	})
	if len(counts) == 0 {
		return 0, 0, 0
	}
	min, max = counts[0], counts[0]
	for _, c := range counts[1:] {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	sorted := append([]uint8(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2], min, max
}

// TrimOnAbundance returns the position to trim s at so that every k-mer of
// the kept prefix has abundance >= cutoff: len(s) when no k-mer is low (or s
// is shorter than k), 0 when the very first k-mer is low, and otherwise the
// last position of the k-mer preceding the first low one.
func (g *Countgraph) TrimOnAbundance(s []byte, cutoff int) int {
	trimAt := len(s)
	g.roll(s, func(start int, idx []uint64) bool {
		if int(g.count(idx)) >= cutoff {
			return true
		}
		if start == 0 {
			trimAt = 0
		} else {
			trimAt = start + g.ksize - 1
		}
		return false
	})
	return trimAt
}

// Occupancy reports the fraction of non-zero cells in the fullest table, a
// proxy for the sketch's collision rate.
func (g *Countgraph) Occupancy() float64 {
	worst := 0.0
	for _, t := range g.tables {
		used := 0
		for _, c := range t {
			if c > 0 {
				used++
			}
		}
		if f := float64(used) / float64(len(t)); f > worst {
			worst = f
		}
	}
	return worst
}

// count is the abundance for one k-mer position: the minimum across tables.
func (g *Countgraph) count(idx []uint64) uint8 {
	c := g.tables[0][idx[0]]
	for j := 1; j < len(idx); j++ {
		if v := g.tables[j][idx[j]]; v < c {
			c = v
		}
	}
	return c
}

// roll slides a k-wide window over s, calling fn with each k-mer's start
// position and per-table cell indexes. fn returns false to stop early.
func (g *Countgraph) roll(s []byte, fn func(start int, idx []uint64) bool) {
	k := g.ksize
	if len(s) < k {
		return
	}
	hashes := make([]rollinghash.Hash32, len(g.htabs))
	for j := range hashes {
		hashes[j] = buzhash32.NewFromUint32Array(g.htabs[j])
		_, _ = hashes[j].Write(s[:k])
	}
	idx := make([]uint64, len(hashes))
	for start := 0; ; start++ {
		for j, h := range hashes {
			idx[j] = uint64(h.Sum32()) % uint64(len(g.tables[j]))
		}
		if !fn(start, idx) {
			return
		}
		if start+k >= len(s) {
			return
		}
		for _, h := range hashes {
			h.Roll(s[start+k])
		}
	}
}

// genHashTables builds the byte-substitution arrays behind each rolling
// hash, one distinct random byte-to-word mapping per count table.
func genHashTables(seed int64, n int) [][256]uint32 {
	rng := rand.New(rand.NewSource(seed))
	tabs := make([][256]uint32, n)
	for j := range tabs {
		seen := make(map[uint32]bool, 256)
		for i := 0; i < 256; i++ {
			for {
				x := rng.Uint32()
				if !seen[x] {
					tabs[j][i] = x
					seen[x] = true
					break
				}
			}
		}
	}
	return tabs
}

// primesBelow returns the n largest primes at or below x, descending.
func primesBelow(x, n int) []int {
	if x < 3 {
		panic(fmt.Sprintf("countgraph: table size %d too small", x))
	}
	primes := make([]int, 0, n)
	if x%2 == 0 {
		x--
	}
	for v := x; len(primes) < n && v >= 3; v -= 2 {
		if isPrime(v) {
			primes = append(primes, v)
		}
	}
	if len(primes) < n {
		panic(fmt.Sprintf("countgraph: cannot find %d primes below table size", n))
	}
	return primes
}

func isPrime(v int) bool {
	if v < 2 {
		return false
	}
	if v%2 == 0 {
		return v == 2
	}
	for d := 3; d*d <= v; d += 2 {
		if v%d == 0 {
			return false
		}
	}
	return true
}
