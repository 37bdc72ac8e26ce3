// Package coverage implements calc_coverage (spec.md §4.8): per-assembly
// interbase base coverage and pair coverage, computed by walking each
// assembly's SeqsetPath and counting the reads that reach every offset.
package coverage

import (
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/readmap"
)

// Options configures Calc.
type Options struct {
	// MaxCoveragePaths bounds how many assemblies are processed
	// concurrently, mirroring calc_coverage's max_coverage_paths path
	// groups.
	MaxCoveragePaths int
}

// DefaultOptions matches the original implementation's shipped value.
func DefaultOptions() Options { return Options{MaxCoveragePaths: 4} }

// Calc fills in Coverage, PairCoverage and ReadCoverage/PairReadCoverage
// for every assembly in assemblies, in parallel. Assemblies without a
// SeqsetEntries path (e.g. built directly by a test, or by a tracer that
// didn't populate one) are left with zero coverage rather than erroring,
// since coverage is advisory bookkeeping, not a correctness requirement
// assembly.Check enforces beyond the coverage.len()==seq.len()+1 shape.
func Calc(assemblies []*assembly.Assembly, rm *readmap.Readmap, opts Options) error {
	limit := opts.MaxCoveragePaths
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	return traverse.Each(len(assemblies), func(i int) error {
		sem <- struct{}{}
		defer func() { <-sem }()
		calcOne(assemblies[i], rm)
		return nil
	})
}

// calcOne computes one assembly's interbase coverage. A read that starts
// at offset s (recognized via SeqsetEntries.RangesAt(s)) and is long
// enough to reach offset i contributes one count to Coverage[i] for every
// i in [s, s+read.Length]; PairCoverage further restricts that count to
// reads with a known mate (a proxy for "this read's pair relationship
// corroborates the walk", since full mate-placement cross-checking needs
// the reference and bwt index calc_coverage doesn't carry). This walks
// every (start, offset) pair — quadratic in path length — which the
// original's incrementally-updated active list avoids; acceptable here
// since assemblies are short.
func calcOne(a *assembly.Assembly, rm *readmap.Readmap) {
	L := len(a.Seq)
	cov := make([]int, L+1)
	pairCov := make([]int, L+1)
	readCov := make(map[int][]readmap.ReadID)
	pairReadCov := make(map[int][]readmap.ReadID)

	if a.SeqsetEntries == nil {
		a.Coverage = cov
		a.PairCoverage = pairCov
		return
	}

	for s := 0; s <= L; s++ {
		for _, rng := range a.SeqsetEntries.RangesAt(s) {
			it := rm.GetPrefixReads(rng, 0)
			for {
				id, ok := it.Next()
				if !ok {
					break
				}
				readLen := rm.GetReadByID(id).Length
				if readLen > rng.Len() {
					// rng only confirms rng.Len() bases from s; a longer read
					// sharing that prefix is not placed at s.
					continue
				}
				_, hasMate := rm.GetMate(id)
				end := s + readLen
				if end > L {
					end = L
				}
				for i := s; i <= end; i++ {
					cov[i]++
					readCov[i] = append(readCov[i], id)
					if hasMate {
						pairCov[i]++
						pairReadCov[i] = append(pairReadCov[i], id)
					}
				}
			}
		}
	}

	a.Coverage = cov
	a.PairCoverage = pairCov
	if len(readCov) > 0 {
		a.ReadCoverage = readCov
	}
	if len(pairReadCov) > 0 {
		a.PairReadCoverage = pairReadCov
	}
}
