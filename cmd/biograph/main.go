// biograph is the discovery CLI (spec.md §6.2): it loads a bgdir and a
// reference, discovers candidate variants with the tracers, aligns and
// dedups them, and writes a VCF.
//
// Usage: biograph discovery --in <bgdir> --ref <refdir> --out <vcf> [flags]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/biograph/align"
	"github.com/grailbio/biograph/internal/procenv"
	"github.com/grailbio/biograph/tracer"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// runOptions bundles every tunable the discovery flags expose (spec.md
// §6.2) that the pipeline builder and tracer driver need.
type runOptions struct {
	AlignOptions    align.Options
	TracerOptions   tracer.Options
	MaxPloids       int
	MaxPhaseLen     int
	MaxPhaseAsmLen  int
	RvgExclude      bool
	UseBidirTracer  bool
	EnablePopTracer bool
	WarmCache       bool
}

// discoveryRequest bundles the paths and options one `discovery` run
// needs, keeping discover's signature manageable.
type discoveryRequest struct {
	InPath               string
	Sample               string
	RefPath              string
	RefMapPath           string
	BedPath              string
	OutPath              string
	AssembliesOut        string
	AlignedAssembliesOut string
	HalfAlignedOut       string
	DotOut               string
	StatsPath            string
	Opts                 runOptions
	Debug                *procenv.DebugConfig
}

func main() {
	cleanup := grail.Init()
	// --in/--ref/--out accept s3:// URIs the same way the teacher's
	// cmd/bio-bam-sort does: register the S3 implementation once, up
	// front, so every later file.Open/file.Create in this binary can
	// resolve one.
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
	code := run(os.Args[1:])
	cleanup()
	os.Exit(code)
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: a subcommand is required (discovery)")
		return exitUsage
	}

	switch args[0] {
	case "variants":
		fmt.Fprintln(os.Stderr, "Error: `variants` is deprecated; use `discovery`")
		return exitFailure
	case "discovery":
		return runDiscovery(args[1:])
	case "-h", "-help", "--help":
		printUsage()
		return exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand %q\n", args[0])
		return exitUsage
	}
}

func printUsage() {
	os.Stderr.WriteString(`Usage:
  biograph discovery --in <bgdir> --ref <refdir> --out <vcf> [flags]
`)
}

func runDiscovery(args []string) int {
	fs := flag.NewFlagSet("discovery", flag.ContinueOnError)

	inPath := fs.String("in", "", "bgdir containing the sample's reads (required)")
	refPath := fs.String("ref", "", "reference directory (required)")
	outPath := fs.String("out", "", "output VCF path (required)")
	sample := fs.String("sample", "", "select readmap inside a multi-sample bgdir")
	minOverlap := fs.Float64("min-overlap", 0.7, "fraction of read length required to anchor a path (0.5..0.9)")
	maxPloids := fs.Int("max-ploids", 20, "maximum overlapping alleles reported at one locus")
	assembliesOut := fs.String("assemblies-out", "", "debug dump: one row per discovered assembly")
	alignedAssembliesOut := fs.String("aligned-assemblies-out", "", "debug dump: one row per aligned assembly")
	halfAlignedOut := fs.String("half-aligned-out", "", "debug dump: one row per half-aligned assembly")
	dotOut := fs.String("dot-out", "", "debug dump: Graphviz dot rendering of discovered assemblies")
	refMapPath := fs.String("ref-map", "", "cache/reuse a previously built ref-map (optional)")
	bedPath := fs.String("bed", "", "restrict discovery to BED regions")
	force := fs.Bool("f", false, "overwrite outputs")
	fs.BoolVar(force, "force", false, "overwrite outputs")
	_ = fs.String("threads", "auto", "auto|<n> worker threads (reserved; this rewrite runs single-threaded)")
	_ = fs.String("tmp", "", "temp directory (reserved)")
	_ = fs.Bool("keep-tmp", false, "keep temp directory on exit (reserved)")
	cache := fs.Bool("cache", false, "touch seqset/readmap/reference pages into RAM before discovery starts")
	statsPath := fs.String("stats", "", "write JSON run stats to this path")
	_ = fs.Bool("verify-assemble", false, "re-check assembly invariants after every stage (reserved)")
	enablePopTracer := fs.Bool("enable-pop-tracer", false, "enable the one-end-anchored pop tracer fallback")
	useBidirTracer := fs.Bool("use-bidir-tracer", false, "use the bidirectional graph-discover tracer instead of the push tracer")
	rvgExclude := fs.Bool("rvg-exclude", false, "suppress small variants with zero pair coverage")
	_ = fs.Bool("simple-gt", true, "depth-ratio genotype heuristic (reserved; the heuristic is always applied)")
	minPopOverlap := fs.Int("min-pop-overlap", tracer.DefaultOptions().MinPopOverlap, "minimum popped-range length the pop tracer keeps following")
	reportLongTraces := fs.Bool("report-long-traces", false, "log traces that exhaust the search-step budget")
	maxPhaseLen := fs.Int("max-phase-len", 1000, "maximum reference span a phase group can cover before it's closed")
	maxPhaseAsmLen := fs.Int("max-phase-asm-len", 10000, "maximum reference or assembly length a phase group's member can have")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *inPath == "" || *refPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --in, --ref and --out are all required")
		return exitUsage
	}
	if *minOverlap < 0.5 || *minOverlap > 0.9 {
		fmt.Fprintln(os.Stderr, "Error: --min-overlap must be in [0.5, 0.9]")
		return exitUsage
	}

	procenv.ConfigureLogging()
	rc := procenv.NewRunContext()
	rc.Debug.ReportLongTraces = *reportLongTraces
	procenv.SetTitle("biograph discovery " + *inPath)

	ctx := vcontext.Background()

	if !*force {
		if _, err := file.Stat(ctx, *outPath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use -f to overwrite)\n", *outPath)
			return exitFailure
		}
	}

	tracerOpts := tracer.DefaultOptions()
	tracerOpts.MinOverlapFrac = *minOverlap
	tracerOpts.MaxPloids = *maxPloids
	tracerOpts.EnablePopTracer = *enablePopTracer
	tracerOpts.UseBidirTracer = *useBidirTracer
	tracerOpts.MinPopOverlap = *minPopOverlap
	tracerOpts.ReportLongTraces = *reportLongTraces

	opts := runOptions{
		AlignOptions:    align.DefaultOptions(),
		TracerOptions:   tracerOpts,
		MaxPloids:       *maxPloids,
		MaxPhaseLen:     *maxPhaseLen,
		MaxPhaseAsmLen:  *maxPhaseAsmLen,
		RvgExclude:      *rvgExclude,
		UseBidirTracer:  *useBidirTracer,
		EnablePopTracer: *enablePopTracer,
		WarmCache:       *cache,
	}

	req := discoveryRequest{
		InPath:               *inPath,
		Sample:               *sample,
		RefPath:              *refPath,
		RefMapPath:           *refMapPath,
		BedPath:              *bedPath,
		OutPath:              *outPath,
		AssembliesOut:        *assembliesOut,
		AlignedAssembliesOut: *alignedAssembliesOut,
		HalfAlignedOut:       *halfAlignedOut,
		DotOut:               *dotOut,
		StatsPath:            *statsPath,
		Opts:                 opts,
		Debug:                rc.Debug,
	}
	if err := discover(ctx, req); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Error.Printf("discovery failed: %v", err)
		os.Remove(*outPath)
		return exitFailure
	}
	return exitSuccess
}

