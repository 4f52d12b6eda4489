// Package filter holds the per-record trimming decision.
package filter

import (
	"github.com/ryfi/khmer/internal/seqio"
)

// Oracle answers abundance queries over a prebuilt k-mer store. It is
// read-only and safe for unsynchronized concurrent use.
type Oracle interface {
	Ksize() int
	MedianAbundance(seq []byte) (median, min, max uint8)
	TrimOnAbundance(seq []byte, cutoff int) int
}

// Options are the trimming parameters, fixed for a whole run.
type Options struct {
	Cutoff           int
	VariableCoverage bool
	NormalizeTo      int
}

// Trim decides what happens to rec: returned unchanged, returned truncated
// at the first low-abundance position, or dropped (nil, false) when the
// kept prefix would be shorter than k.
//
// Abundance queries run against a copy with ambiguity bases replaced by 'A';
// the emitted slice always comes from the original sequence, so 'N' bases in
// the kept prefix survive untouched. With VariableCoverage set, records whose
// median abundance is below NormalizeTo are passed through unmodified.
func Trim(rec *seqio.Record, g Oracle, opt Options) (*seqio.Record, bool) {
	q := disambiguate(rec.Seq)

	if opt.VariableCoverage {
		med, _, _ := g.MedianAbundance(q)
		if int(med) < opt.NormalizeTo {
			return rec, true
		}
	}

	trimAt := g.TrimOnAbundance(q, opt.Cutoff)
	if trimAt < g.Ksize() {
		return nil, false
	}
	if trimAt >= len(rec.Seq) {
		return rec, true
	}
	out := &seqio.Record{Name: rec.Name, Seq: rec.Seq[:trimAt]}
	if len(rec.Qual) > 0 {
		out.Qual = rec.Qual[:trimAt]
	}
	return out, true
}

// disambiguate returns s with 'N'/'n' replaced by 'A', copying only when a
// replacement is actually needed.
func disambiguate(s []byte) []byte {
	dirty := -1
	for i, c := range s {
		if c == 'N' || c == 'n' {
			dirty = i
			break
		}
	}
	if dirty < 0 {
		return s
	}
	q := append([]byte(nil), s...)
	for i := dirty; i < len(q); i++ {
		if q[i] == 'N' || q[i] == 'n' {
			q[i] = 'A'
		}
	}
	return q
}
