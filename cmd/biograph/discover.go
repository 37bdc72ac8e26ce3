package main

import (
	"context"
	"encoding/json"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/grailbio/biograph/align"
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/pipeline/pairstats"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/reference/bwtindex"
	"github.com/grailbio/biograph/tracer"
	"github.com/grailbio/biograph/vcfio"
)

// pairDistanceSeed fixes pairstats.Estimate's sampling order so a given
// bgdir always estimates the same pair distance across runs.
const pairDistanceSeed = 1

// runStats is the --stats JSON dump: a single top-level summary of what
// the run did, not a per-assembly trace (that's --assemblies-out etc).
type runStats struct {
	Scaffolds      int `json:"scaffolds"`
	Reads          int `json:"reads"`
	VariantRecords int `json:"variant_records"`
}

// discover runs the full discovery pipeline described by spec.md §4: load
// the bgdir and reference, build the supporting indexes, then walk every
// scaffold through the tracer/align/dedup/coverage/ploid/phase chain and
// emit a VCF, plus any requested debug dumps.
func discover(ctx context.Context, req discoveryRequest) error {
	if req.Opts.WarmCache {
		prefetchCache(req.InPath)
		prefetchCache(req.RefPath)
	}

	ss, rm, err := loadBgdir(ctx, req.InPath, req.Sample)
	if err != nil {
		return err
	}
	ref, err := loadReference(ctx, req.RefPath)
	if err != nil {
		return err
	}

	rmap, err := loadOrBuildRefMap(ctx, req.RefMapPath, ss, ref)
	if err != nil {
		return errors.E(err, "discover: building ref-map")
	}

	bwt := bwtindex.Build(flattenReference(ref))

	bed, err := loadBedRegions(ctx, req.BedPath)
	if err != nil {
		return err
	}

	opts := req.Opts
	if stats, err := pairstats.Estimate(ctx, ss, rm, ref, rmap, bwt, pairDistanceSeed); err == nil && stats.Found {
		if d := int(stats.MedianOffset); d > 0 && d != tracer.DefaultOptions().MaxPairDistance {
			opts.TracerOptions.MaxPairDistance = d
			log.Printf("discover: estimated pair distance %d from %d sampled pairs", d, stats.Sampled)
		}
	}
	req.Opts = opts

	outFile, err := file.Create(ctx, req.OutPath)
	if err != nil {
		return errors.E(err, "discover: creating", req.OutPath)
	}
	defer outFile.Close(ctx) // nolint: errcheck

	w := vcfio.NewWriter(outFile.Writer(ctx), sampleNameFromPath(req.InPath), vcfio.DefaultSVSizeThreshold, nil)
	if err := w.WriteHeader(ref); err != nil {
		return errors.E(err, "discover: writing VCF header")
	}

	dumps, err := openDebugDumps(ctx, req, ref)
	if err != nil {
		return err
	}
	defer dumps.Close(ctx) // nolint: errcheck

	stats := runStats{Scaffolds: len(ref.Scaffolds), Reads: rm.NumReads()}

	for idx, info := range ref.Scaffolds {
		sc := reference.FromScaffoldInfo(info)
		flatOffset := ref.Flatten(idx, 0)

		regions := scaffoldRegions(bed, info.Name, sc.EndPos())
		if len(regions) == 0 {
			continue
		}

		var halfOut align.Output
		if dumps.halfAligned != nil {
			halfOut = halfAlignedSink{dumps.halfAligned}
		}

		adapter, dc, vcf := buildScaffoldPipeline(sc, flatOffset, rm, ref, w, req.Opts, halfOut, dumps.aligned)
		if dumps.assemblies != nil || dumps.dotPath != "" {
			adapter = debugTee{next: adapter, raw: dumps.assemblies, dumps: dumps}
		}
		if err := discoverScaffold(idx, sc, ss, rm, ref, bwt, regions, req.Opts, adapter, dc); err != nil {
			return errors.E(err, "discover: scaffold", info.Name)
		}
		stats.VariantRecords += vcf.Recorded
	}

	if req.StatsPath != "" {
		if err := writeStats(ctx, req.StatsPath, stats); err != nil {
			return err
		}
	}
	return nil
}

// flattenReference concatenates every scaffold's bases into one flat
// dna.Seq for bwtindex.Build. 'N' gap positions have no dna.Base
// representation (dna.Base is strictly A/C/G/T), so they are filled with
// an arbitrary placeholder base; bwtindex.Index.Find only ever reports
// positions that originated in a real (non-gap) query read, so a gap
// matching a placeholder run can't produce a false concrete hit in
// practice, but this is a known simplification relative to a real
// FM-index built with proper gap handling.
func flattenReference(ref *reference.Reference) dna.Seq {
	flat := make(dna.Seq, ref.TotalLength())
	for i := range ref.Scaffolds {
		sc := &ref.Scaffolds[i]
		for pos := 0; pos < sc.Length; pos++ {
			b, ok := sc.At(pos)
			if !ok {
				b = dna.A
			}
			flat[ref.Flatten(i, pos)] = b
		}
	}
	return flat
}

// sampleNameFromPath derives the VCF header's sample column name from the
// bgdir path (spec.md doesn't name a --sample-name flag, so the input
// path is the only identifier available).
func sampleNameFromPath(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	if base == "" {
		return "SAMPLE"
	}
	return base
}

// halfAlignedSink adapts a *vcfio.HalfAlignedCSVWriter to align.Output so
// it can receive assemblies alignAdapter could not anchor.
type halfAlignedSink struct {
	w *vcfio.HalfAlignedCSVWriter
}

func (s halfAlignedSink) Add(a *assembly.Assembly) error { return s.w.Write(a) }

// debugTee records every tracer-discovered assembly to --assemblies-out
// (before alignment) and --dot-out, and forwards it on unchanged;
// --aligned-assemblies-out is wired separately, inside
// buildScaffoldPipeline, at the point where alignment has already
// completed.
type debugTee struct {
	next  align.Output
	raw   *vcfio.AssemblyCSVWriter
	dumps *debugDumps
}

func (t debugTee) Add(a *assembly.Assembly) error {
	if t.raw != nil {
		if err := t.raw.Write(a); err != nil {
			return err
		}
	}
	if t.dumps != nil && t.dumps.dotPath != "" {
		t.dumps.dot = append(t.dumps.dot, a)
	}
	return t.next.Add(a)
}

// debugDumps owns the optional --assemblies-out/--aligned-assemblies-out/
// --half-aligned-out writers (and their underlying files), all of which
// are plain TSVs optionally zstd-compressed by filename (spec.md §6.3), plus
// the --dot-out Graphviz dump (supplemented from original_source's
// assembly_dot.{h,cpp}; written once at Close since assembly.WriteDot takes
// a whole graph slice rather than streaming one row at a time).
type debugDumps struct {
	assemblies  *vcfio.AssemblyCSVWriter
	aligned     *vcfio.AlignedCSVWriter
	halfAligned *vcfio.HalfAlignedCSVWriter
	dotPath     string
	dot         []*assembly.Assembly
	files       []file.File
}

func openDebugDumps(ctx context.Context, req discoveryRequest, ref *reference.Reference) (*debugDumps, error) {
	d := &debugDumps{}
	if req.AssembliesOut != "" {
		w, f, err := openTSV(ctx, req.AssembliesOut)
		if err != nil {
			return nil, err
		}
		d.files = append(d.files, f)
		d.assemblies = vcfio.NewAssemblyCSVWriter(w, ref)
	}
	if req.AlignedAssembliesOut != "" {
		w, f, err := openTSV(ctx, req.AlignedAssembliesOut)
		if err != nil {
			return nil, err
		}
		d.files = append(d.files, f)
		d.aligned = vcfio.NewAlignedCSVWriter(w, ref)
	}
	if req.HalfAlignedOut != "" {
		w, f, err := openTSV(ctx, req.HalfAlignedOut)
		if err != nil {
			return nil, err
		}
		d.files = append(d.files, f)
		d.halfAligned = vcfio.NewHalfAlignedCSVWriter(w, ref)
	}
	d.dotPath = req.DotOut
	return d, nil
}

func openTSV(ctx context.Context, path string) (*tsv.Writer, file.File, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "discover: creating debug dump", path)
	}
	return tsv.NewWriter(f.Writer(ctx)), f, nil
}

func (d *debugDumps) Close(ctx context.Context) error {
	if d.assemblies != nil {
		d.assemblies.Flush() // nolint: errcheck
	}
	if d.aligned != nil {
		d.aligned.Flush() // nolint: errcheck
	}
	if d.halfAligned != nil {
		d.halfAligned.Flush() // nolint: errcheck
	}
	var firstErr error
	if d.dotPath != "" {
		if err := writeDotFile(ctx, d.dotPath, d.dot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range d.files {
		if err := f.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func writeDotFile(ctx context.Context, path string, assemblies []*assembly.Assembly) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "discover: creating", path)
	}
	if err := assembly.WriteDot(f.Writer(ctx), assemblies); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.E(err, "discover: writing dot dump")
	}
	return f.Close(ctx)
}

func writeStats(ctx context.Context, path string, stats runStats) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "discover: creating stats file", path)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.E(err, "discover: encoding stats")
	}
	if _, err := f.Writer(ctx).Write(data); err != nil {
		f.Close(ctx) // nolint: errcheck
		return errors.E(err, "discover: writing stats")
	}
	if err := f.Close(ctx); err != nil {
		return errors.E(err, "discover: closing stats file")
	}
	log.Printf("discover: wrote stats to %s", path)
	return nil
}
