// Package vcfio implements the output contracts of spec.md §6.3: a VCF 4.1
// writer plus the three debug CSV dumps (assembly, aligned, half-aligned)
// the discovery CLI can optionally emit alongside the VCF.
package vcfio

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/biograph/reference"
	"github.com/klauspost/compress/zstd"
)

// DefaultSVSizeThreshold is vcf_sv_size_threshold's default (spec.md §6.3).
const DefaultSVSizeThreshold = 20

// Record is one VCF data line's worth of already-computed fields. vcfio
// does not decide genotypes or SV classification on its own behalf: the
// caller (the discovery pipeline, via ploid.SimpleGenotypeFilter and the
// align package's AlignedVariants) hands over fully-resolved values.
type Record struct {
	Scaffold string
	Pos      int64 // 1-based
	Ref, Alt string

	NS       int // number of samples with data (always 1 here)
	AssemblyID string // AID, optional
	GenotypeBy string // GENBY, optional
	PopMatch   bool   // POP flag

	GT  string
	PG  string
	GQ  float64
	PI  string
	OV  int
	DP  int
	AD  int
	PDP int
	PAD int

	MLFeatures map[string]float64 // appended as extra FORMAT fields, sorted by key
}

// Writer writes a VCF 4.1 stream: one header (once), any number of
// records after. SVSizeThreshold controls when SVTYPE/SVLEN/END are
// emitted, per spec.md §6.3 ("iff either REF or ALT is >= threshold").
type Writer struct {
	w               io.Writer
	sampleName      string
	svSizeThreshold int
	mlFeatureNames  []string
	wroteHeader     bool
}

// NewWriter returns a Writer. svSizeThreshold<=0 selects
// DefaultSVSizeThreshold. mlFeatureNames fixes the set and order of
// ML-feature FORMAT columns appended after PAD; every Record written must
// supply exactly that set in MLFeatures (a missing key is written as ".").
func NewWriter(w io.Writer, sampleName string, svSizeThreshold int, mlFeatureNames []string) *Writer {
	if svSizeThreshold <= 0 {
		svSizeThreshold = DefaultSVSizeThreshold
	}
	names := append([]string(nil), mlFeatureNames...)
	sort.Strings(names)
	return &Writer{w: w, sampleName: sampleName, svSizeThreshold: svSizeThreshold, mlFeatureNames: names}
}

// WriteHeader writes the VCF 4.1 header, with one ##contig line per
// scaffold in ref.
func (w *Writer) WriteHeader(ref *reference.Reference) error {
	if w.wroteHeader {
		return errors.E("vcfio: WriteHeader called twice")
	}
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.1\n")
	b.WriteString(`##INFO=<ID=NS,Number=1,Type=Integer,Description="Number of samples with data">` + "\n")
	b.WriteString(`##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">` + "\n")
	b.WriteString(`##INFO=<ID=SVLEN,Number=1,Type=Integer,Description="Difference in length between REF and ALT alleles">` + "\n")
	b.WriteString(`##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant">` + "\n")
	b.WriteString(`##INFO=<ID=AID,Number=1,Type=String,Description="Source assembly id">` + "\n")
	b.WriteString(`##INFO=<ID=GENBY,Number=1,Type=String,Description="Variant generation method">` + "\n")
	b.WriteString(`##INFO=<ID=POP,Number=0,Type=Flag,Description="Confirmed by pop tracer">` + "\n")
	b.WriteString(`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">` + "\n")
	b.WriteString(`##FORMAT=<ID=PG,Number=1,Type=String,Description="Phased genotype">` + "\n")
	b.WriteString(`##FORMAT=<ID=GQ,Number=1,Type=Float,Description="Genotype quality">` + "\n")
	b.WriteString(`##FORMAT=<ID=PI,Number=1,Type=String,Description="Phase id">` + "\n")
	b.WriteString(`##FORMAT=<ID=OV,Number=1,Type=Integer,Description="Overlapping variant count">` + "\n")
	b.WriteString(`##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Read depth">` + "\n")
	b.WriteString(`##FORMAT=<ID=AD,Number=1,Type=Integer,Description="Allelic depth">` + "\n")
	b.WriteString(`##FORMAT=<ID=PDP,Number=1,Type=Integer,Description="Pair depth">` + "\n")
	b.WriteString(`##FORMAT=<ID=PAD,Number=1,Type=Integer,Description="Pair allelic depth">` + "\n")
	for _, name := range w.mlFeatureNames {
		fmt.Fprintf(&b, "##FORMAT=<ID=%s,Number=1,Type=Float,Description=\"ML feature %s\">\n", name, name)
	}
	for _, sc := range ref.Scaffolds {
		fmt.Fprintf(&b, "##contig=<ID=%s,length=%d>\n", sc.Name, sc.Length)
	}
	b.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t" + w.sampleName + "\n")
	if _, err := io.WriteString(w.w, b.String()); err != nil {
		return errors.E(err, "vcfio: writing header")
	}
	w.wroteHeader = true
	return nil
}

// WriteRecord writes one data line.
func (w *Writer) WriteRecord(r Record) error {
	info := fmt.Sprintf("NS=%d", r.NS)
	if len(r.Ref) >= w.svSizeThreshold || len(r.Alt) >= w.svSizeThreshold {
		svtype := "INS"
		if len(r.Ref) > len(r.Alt) {
			svtype = "DEL"
		}
		svlen := len(r.Alt) - len(r.Ref)
		info += fmt.Sprintf(";SVTYPE=%s;SVLEN=%+d;END=%d", svtype, svlen, r.Pos+1)
	}
	if r.AssemblyID != "" {
		info += ";AID=" + r.AssemblyID
	}
	if r.GenotypeBy != "" {
		info += ";GENBY=" + r.GenotypeBy
	}
	if r.PopMatch {
		info += ";POP"
	}

	format := []string{"GT", "PG", "GQ", "PI", "OV", "DP", "AD", "PDP", "PAD"}
	values := []string{
		r.GT, orDot(r.PG), fmt.Sprintf("%g", r.GQ), orDot(r.PI),
		fmt.Sprintf("%d", r.OV), fmt.Sprintf("%d", r.DP), fmt.Sprintf("%d", r.AD),
		fmt.Sprintf("%d", r.PDP), fmt.Sprintf("%d", r.PAD),
	}
	for _, name := range w.mlFeatureNames {
		format = append(format, name)
		if v, ok := r.MLFeatures[name]; ok {
			values = append(values, fmt.Sprintf("%g", v))
		} else {
			values = append(values, ".")
		}
	}

	_, err := fmt.Fprintf(w.w, "%s\t%d\t.\t%s\t%s\t.\t.\t%s\t%s\t%s\n",
		r.Scaffold, r.Pos, orDot(r.Ref), orDot(r.Alt), info, strings.Join(format, ":"), strings.Join(values, ":"))
	if err != nil {
		return errors.E(err, "vcfio: writing record")
	}
	return nil
}

// WrapOutput wraps underlying with a zstd encoder iff path ends in ".zst":
// the debug CSV dumps (--assemblies-out et al.) accept a ".zst" suffix to
// request in-line compression. The caller must Close the returned writer
// (which also closes underlying) even when no compression applies.
func WrapOutput(underlying io.WriteCloser, path string) (io.WriteCloser, error) {
	if !strings.HasSuffix(path, ".zst") {
		return underlying, nil
	}
	enc, err := zstd.NewWriter(underlying)
	if err != nil {
		return nil, errors.E(err, "vcfio: opening zstd writer for", path)
	}
	return &zstdWriteCloser{enc: enc, underlying: underlying}, nil
}

type zstdWriteCloser struct {
	enc        *zstd.Encoder
	underlying io.WriteCloser
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) { return z.enc.Write(p) }

func (z *zstdWriteCloser) Close() error {
	if err := z.enc.Close(); err != nil {
		z.underlying.Close()
		return errors.E(err, "vcfio: closing zstd writer")
	}
	return z.underlying.Close()
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}
