package main

import (
	"sort"

	"github.com/grailbio/biograph/align"
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/coverage"
	"github.com/grailbio/biograph/dedup"
	"github.com/grailbio/biograph/phase"
	"github.com/grailbio/biograph/pipeline"
	"github.com/grailbio/biograph/ploid"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/reference/bwtindex"
	"github.com/grailbio/biograph/seqset"
	"github.com/grailbio/biograph/tracer"
	"github.com/grailbio/biograph/vcfio"
)

// alignAdapter is the Stage that applies spec.md §4.6/§4.7 (aligner,
// anchor-drop, align-splitter, normalizer, padder) to each discovered
// assembly before it reaches dedup/coverage/ploid/phase. Tracers emit
// half-anchored candidates as well as fully-anchored ones, so Add first
// tries AnchorDrop; assemblies it can't rejoin go to halfAligned instead
// of downstream.
type alignAdapter struct {
	sc                 reference.Scaffold
	scaffoldFlatOffset int64
	opts               align.Options
	maxLookahead       int
	next               align.Output
	halfAligned        align.Output // may be nil
}

func (s *alignAdapter) Add(a *assembly.Assembly) error {
	if a.LeftOffset.Valid() != a.RightOffset.Valid() {
		ok, err := align.AnchorDrop(a, s.scaffoldFlatOffset, s.sc, s.maxLookahead, s.opts)
		if err != nil {
			return err
		}
		if !ok {
			if s.halfAligned != nil {
				return s.halfAligned.Add(a)
			}
			return nil
		}
	}
	if err := align.Align(a, s.scaffoldFlatOffset, s.sc, s.opts); err != nil {
		return err
	}
	if err := align.Normalize(a, s.scaffoldFlatOffset, s.sc); err != nil {
		return err
	}
	if err := align.Pad(a, s.scaffoldFlatOffset, s.sc); err != nil {
		return err
	}
	if err := dedup.Trim(a, s.scaffoldFlatOffset, s.sc); err != nil {
		return err
	}
	return align.Split(a, s.scaffoldFlatOffset, s.sc, s.next)
}

func (s *alignAdapter) Flush() error { return nil }

// dedupCoverageStage batches every assembly for one scaffold (dedup and
// coverage both need the full set: spec.md §4.8's calc_coverage walks the
// seqset per assembly and §4.9's deduper merges across the whole input),
// runs exact_deduper then deduper then calc_coverage at Flush, and
// forwards the result in canonical (min-offset) order.
type dedupCoverageStage struct {
	rm           *readmap.Readmap
	coverageOpts coverage.Options
	next         pipeline.Stage
	buf          []*assembly.Assembly
}

func (s *dedupCoverageStage) Add(a *assembly.Assembly) error {
	s.buf = append(s.buf, a)
	return nil
}

func (s *dedupCoverageStage) Flush() error {
	merged := dedup.ExactMerge(s.buf)
	merged = dedup.Merge(merged)
	if err := coverage.Calc(merged, s.rm, s.coverageOpts); err != nil {
		return err
	}
	assembly.NormalizeMLFeatures(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return minOffset(merged[i]) < minOffset(merged[j])
	})
	for _, a := range merged {
		if err := s.next.Add(a); err != nil {
			return err
		}
	}
	s.buf = nil
	return s.next.Flush()
}

func minOffset(a *assembly.Assembly) int64 {
	lo, _ := a.MinMaxOffset()
	return lo
}

// vcfStage is the terminal Stage: it resolves a genotype for every
// non-reference assembly via ploid.SimpleGenotypeFilter and writes a VCF
// record. Reference-matching assemblies, and any assembly without aligned
// variants, are always dropped here: they produce no VCF record.
type vcfStage struct {
	w        *vcfio.Writer
	ref      *reference.Reference
	gtOpts   ploid.SimpleGenotypeFilterOptions
	Recorded int // records written, for --stats
}

func (s *vcfStage) Add(a *assembly.Assembly) error {
	if a.MatchesReference || len(a.AlignedVariants) == 0 {
		return nil
	}
	for _, v := range a.AlignedVariants {
		idx, pos, err := s.ref.GetSeqPosition(v.Left)
		if err != nil {
			return err
		}
		sc := &s.ref.Scaffolds[idx]
		refSeq := scaffoldBases(sc, pos, int(v.Right-v.Left))
		rec := vcfio.Record{
			Scaffold:   sc.Name,
			Pos:        int64(pos) + 1,
			Ref:        refSeq,
			Alt:        v.Seq.String(),
			NS:         1,
			GT:         ploid.SimpleGenotypeFilter(a, a.OtherDepth, s.gtOpts),
			GQ:         a.GenotypeQuality,
			DP:         sumInts(a.Coverage),
			AD:         sumInts(a.PairCoverage),
			MLFeatures: a.MLFeatures,
		}
		if err := s.w.WriteRecord(rec); err != nil {
			return err
		}
		s.Recorded++
	}
	return nil
}

// scaffoldBases renders length reference bases starting at start,
// writing 'N' for any gap position (mirrors vcfio's own unexported
// refSequence helper, grounded the same way).
func scaffoldBases(sc *reference.ScaffoldInfo, start, length int) string {
	bases := make([]byte, length)
	for i := range bases {
		b, ok := sc.At(start + i)
		if !ok {
			bases[i] = 'N'
			continue
		}
		bases[i] = b.Char()
	}
	return string(bases)
}

func (s *vcfStage) Flush() error { return nil }

func sumInts(vals []int) int {
	total := 0
	for _, v := range vals {
		total += v
	}
	return total
}

// alignedDumpStage tees every assembly that has cleared alignment (align,
// normalize, pad, trim, split) to the --aligned-assemblies-out writer
// before forwarding to dedup+coverage.
type alignedDumpStage struct {
	w    *vcfio.AlignedCSVWriter
	next pipeline.Stage
}

func (s *alignedDumpStage) Add(a *assembly.Assembly) error {
	if err := s.w.Write(a); err != nil {
		return err
	}
	return s.next.Add(a)
}

func (s *alignedDumpStage) Flush() error { return s.next.Flush() }

// buildScaffoldPipeline assembles the full per-scaffold Stage chain in
// the order spec.md §4 describes: anchor-drop, align, normalize, pad,
// trim, split, dedup+coverage (batched), ploid_limiter, join_phases,
// split_phases, optional rvg_exclude, then VCF emission. alignedDump, if
// non-nil, receives a copy of every assembly once alignment completes.
func buildScaffoldPipeline(
	sc reference.Scaffold,
	scaffoldFlatOffset int64,
	rm *readmap.Readmap,
	ref *reference.Reference,
	w *vcfio.Writer,
	opts runOptions,
	halfAligned align.Output,
	alignedDump *vcfio.AlignedCSVWriter,
) (align.Output, pipeline.Stage, *vcfStage) {
	vcf := &vcfStage{
		w:      w,
		ref:    ref,
		gtOpts: ploid.DefaultSimpleGenotypeFilterOptions(),
	}
	var terminal pipeline.Stage = vcf
	if opts.RvgExclude {
		terminal = ploid.NewRvgExclude(terminal, ploid.RvgExcludeOptions{SVSizeThreshold: vcfio.DefaultSVSizeThreshold})
	}

	split := phase.NewSplit(terminal)
	join := phase.NewJoin(split, opts.MaxPhaseLen, opts.MaxPhaseAsmLen)
	limiter := ploid.NewLimiter(join, ploid.Options{MaxPloids: opts.MaxPloids})

	dc := &dedupCoverageStage{rm: rm, coverageOpts: coverage.DefaultOptions(), next: limiter}

	var alignNext align.Output = dc
	if alignedDump != nil {
		alignNext = &alignedDumpStage{w: alignedDump, next: dc}
	}

	adapter := &alignAdapter{
		sc:                 sc,
		scaffoldFlatOffset: scaffoldFlatOffset,
		opts:               opts.AlignOptions,
		maxLookahead:       opts.TracerOptions.ReadAheadDistance,
		next:               alignNext,
		halfAligned:        halfAligned,
	}
	return adapter, dc, vcf
}

// discoverScaffold runs every selected tracer across sc's full span and
// feeds their output through adapter, then flushes dc (which drains into
// the rest of the chain built by buildScaffoldPipeline).
func discoverScaffold(
	scaffoldIdx int,
	sc reference.Scaffold,
	ss *seqset.Seqset,
	rm *readmap.Readmap,
	ref *reference.Reference,
	bwt *bwtindex.Index,
	regions [][2]int,
	opts runOptions,
	adapter align.Output,
	dc pipeline.Stage,
) error {
	if opts.UseBidirTracer {
		gd := &tracer.GraphDiscoverTracer{SS: ss, RM: rm, Ref: ref, Opts: opts.TracerOptions}
		for _, r := range regions {
			if err := gd.Trace(scaffoldIdx, sc, r[0], r[1], adapter); err != nil {
				return err
			}
		}
	} else {
		push := &tracer.PushTracer{SS: ss, RM: rm, Ref: ref, BWT: bwt, Opts: opts.TracerOptions, Cost: tracer.DefaultCostModel()}
		// EnablePopTracer selects the one-end-anchored fallback described in
		// spec.md §4.5.2: every push-tracer walk that falls out of the
		// search without a unique rejoin is replayed through a PopTracer
		// seeded with reference-position and mate fronts, the way the
		// original's push tracer calls into the pop tracer in-process.
		if err := tracer.RunPushWithPopFallback(push, scaffoldIdx, sc, regions, adapter); err != nil {
			return err
		}
	}
	return dc.Flush()
}
