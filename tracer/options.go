// Package tracer implements the three interchangeable variant-discovery
// walks over a seqset/reference pair (spec.md §4.5): the push tracer, the
// pop tracer, and the bidirectional graph-discover tracer. All three share
// one contract — given Options and a scaffold range, call output.Add(a)
// zero or more times — grounded on
// original_source/modules/variants/{tracer.h,pop_tracer.cpp,
// reversable_tracer.cpp} and original_source/modules/graph_discover/*.
package tracer

// Options bundles the tunables spec.md §4.5 and §6.2 name for the
// tracers. Fraction-valued knobs (MinOverlapFrac) are resolved to a
// concrete base count per-read via MinOverlap.
type Options struct {
	// MinOverlapFrac is the fraction of a read's length that must match
	// for it to anchor a path (spec.md §6.2's --min-overlap, 0.5..0.9).
	MinOverlapFrac float64
	// MinPopOverlap is the minimum popped-range length the pop tracer will
	// keep following (--min-pop-overlap).
	MinPopOverlap int
	// MaxPloids caps candidate paths retained per locus.
	MaxPloids int
	// ReadAheadDistance bounds how far ahead of the trace frontier reads
	// are indexed.
	ReadAheadDistance int
	// MaxPairDistance bounds how long a mate-pair hint remains live in the
	// bidirectional tracer's m_mates table.
	MaxPairDistance int
	// MaxSearchSteps and MaxAmbiguousSearchSteps bound a single push-tracer
	// walk's length and its ambiguous-base budget.
	MaxSearchSteps          int
	MaxAmbiguousSearchSteps int
	// MaxNextPaths caps the push tracer's priority queue size.
	MaxNextPaths int
	// EnablePopTracer and UseBidirTracer select which extra tracers run
	// alongside the push tracer (--enable-pop-tracer, --use-bidir-tracer).
	EnablePopTracer bool
	UseBidirTracer  bool
	// ReportLongTraces logs traces that exhaust MaxSearchSteps instead of
	// silently dropping them (--report-long-traces).
	ReportLongTraces bool
}

// DefaultOptions returns the tracers' defaults, chosen to match the
// original implementation's shipped defaults where spec.md doesn't pin a
// value.
func DefaultOptions() Options {
	return Options{
		MinOverlapFrac:          0.7,
		MinPopOverlap:           20,
		MaxPloids:               4,
		ReadAheadDistance:       1000,
		MaxPairDistance:         1000,
		MaxSearchSteps:          10000,
		MaxAmbiguousSearchSteps: 32,
		MaxNextPaths:            10000,
	}
}

// MinOverlap resolves MinOverlapFrac to a concrete base count for a read
// of the given length, always at least 1 base.
func (o Options) MinOverlap(readLen int) int {
	n := int(float64(readLen) * o.MinOverlapFrac)
	if n < 1 {
		n = 1
	}
	return n
}
