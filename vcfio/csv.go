package vcfio

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/reference"
)

// AssemblyCSVWriter writes the --assemblies-out debug dump (spec.md §6.3):
// one row per assembly with its raw reference and assembly sequence.
type AssemblyCSVWriter struct {
	w   *tsv.Writer
	ref *reference.Reference
}

// NewAssemblyCSVWriter returns a writer resolving scaffold names/positions
// against ref.
func NewAssemblyCSVWriter(w *tsv.Writer, ref *reference.Reference) *AssemblyCSVWriter {
	return &AssemblyCSVWriter{w: w, ref: ref}
}

// Write emits one row: scaffold,left,right,lanch,ranch,aid,score,minov,ref_seq,seq,tags.
func (c *AssemblyCSVWriter) Write(a *assembly.Assembly) error {
	scaffold, left, refSeq, err := c.scaffoldAndRefSeq(a)
	if err != nil {
		return err
	}
	c.w.WriteString(scaffold)
	c.w.WriteInt64(int64(left))
	c.w.WriteInt64(int64(left) + a.RefSpan())
	c.w.WriteInt64(int64(a.LeftAnchorLen))
	c.w.WriteInt64(int64(a.RightAnchorLen))
	c.w.WriteInt64(int64(a.ID))
	c.w.WriteString(fmt.Sprintf("%g", a.Score))
	c.w.WriteInt64(int64(minCoverage(a.Coverage)))
	c.w.WriteString(refSeq)
	c.w.WriteString(a.Seq.String())
	c.w.WriteString(strings.Join(a.Tags(), ";"))
	return c.w.EndLine()
}

// Flush flushes the underlying tsv.Writer.
func (c *AssemblyCSVWriter) Flush() error { return c.w.Flush() }

func (c *AssemblyCSVWriter) scaffoldAndRefSeq(a *assembly.Assembly) (scaffold string, left int, refSeq string, err error) {
	if !a.LeftOffset.Valid() {
		return "", 0, "", nil
	}
	idx, pos, err := c.ref.GetSeqPosition(a.LeftOffset.Get())
	if err != nil {
		return "", 0, "", errors.E(err, "vcfio: locating assembly")
	}
	scaffold = c.ref.Scaffolds[idx].Name
	refSeq = refSequence(&c.ref.Scaffolds[idx], pos, int(a.RefSpan()))
	return scaffold, pos, refSeq, nil
}

func refSequence(sc *reference.ScaffoldInfo, start, length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		base, ok := sc.At(start + i)
		if !ok {
			b.WriteByte('N')
			continue
		}
		b.WriteString(base.String())
	}
	return b.String()
}

func minCoverage(cov []int) int {
	if len(cov) == 0 {
		return 0
	}
	m := cov[0]
	for _, c := range cov[1:] {
		if c < m {
			m = c
		}
	}
	return m
}

// AlignedCSVWriter writes the --aligned-assemblies-out debug dump: like
// AssemblyCSVWriter, but ref_seq is replaced by the ;-separated list of
// "left-right:var_seq:ref_seq" triples from AlignedVariants.
type AlignedCSVWriter struct {
	w   *tsv.Writer
	ref *reference.Reference
}

// NewAlignedCSVWriter returns a writer resolving scaffold names/positions
// and per-variant reference bases against ref.
func NewAlignedCSVWriter(w *tsv.Writer, ref *reference.Reference) *AlignedCSVWriter {
	return &AlignedCSVWriter{w: w, ref: ref}
}

// Write emits one row.
func (c *AlignedCSVWriter) Write(a *assembly.Assembly) error {
	var scaffold string
	var left int
	if a.LeftOffset.Valid() {
		idx, pos, err := c.ref.GetSeqPosition(a.LeftOffset.Get())
		if err != nil {
			return errors.E(err, "vcfio: locating assembly")
		}
		scaffold = c.ref.Scaffolds[idx].Name
		left = pos
	}

	var triples []string
	for _, v := range a.AlignedVariants {
		idx, pos, err := c.ref.GetSeqPosition(v.Left)
		if err != nil {
			return errors.E(err, "vcfio: locating aligned variant")
		}
		refSeq := refSequence(&c.ref.Scaffolds[idx], pos, int(v.Right-v.Left))
		triples = append(triples, fmt.Sprintf("%d-%d:%s:%s", v.Left, v.Right, v.Seq.String(), refSeq))
	}

	c.w.WriteString(scaffold)
	c.w.WriteInt64(int64(left))
	c.w.WriteInt64(int64(left) + a.RefSpan())
	c.w.WriteInt64(int64(a.LeftAnchorLen))
	c.w.WriteInt64(int64(a.RightAnchorLen))
	c.w.WriteInt64(int64(a.ID))
	c.w.WriteString(fmt.Sprintf("%g", a.Score))
	c.w.WriteInt64(int64(minCoverage(a.Coverage)))
	c.w.WriteString(strings.Join(triples, ";"))
	c.w.WriteString(a.Seq.String())
	c.w.WriteString(strings.Join(a.Tags(), ";"))
	return c.w.EndLine()
}

// Flush flushes the underlying tsv.Writer.
func (c *AlignedCSVWriter) Flush() error { return c.w.Flush() }

// HalfAlignedCSVWriter writes the --half-aligned-out debug dump: assemblies
// that never found a rejoin on one side (spec.md §6.3).
type HalfAlignedCSVWriter struct {
	w   *tsv.Writer
	ref *reference.Reference
}

// NewHalfAlignedCSVWriter returns a writer resolving scaffold names against
// ref.
func NewHalfAlignedCSVWriter(w *tsv.Writer, ref *reference.Reference) *HalfAlignedCSVWriter {
	return &HalfAlignedCSVWriter{w: w, ref: ref}
}

// Write emits one row: scaffold,left_anchor,right_anchor,sequence,aid.
// Exactly one of leftAnchor/rightAnchor is non-empty, per spec.md §6.3.
func (c *HalfAlignedCSVWriter) Write(a *assembly.Assembly) error {
	var scaffold, leftAnchor, rightAnchor string
	switch {
	case a.LeftOffset.Valid():
		idx, pos, err := c.ref.GetSeqPosition(a.LeftOffset.Get())
		if err != nil {
			return errors.E(err, "vcfio: locating half-aligned assembly")
		}
		scaffold = c.ref.Scaffolds[idx].Name
		leftAnchor = fmt.Sprintf("%d", pos)
	case a.RightOffset.Valid():
		idx, pos, err := c.ref.GetSeqPosition(a.RightOffset.Get())
		if err != nil {
			return errors.E(err, "vcfio: locating half-aligned assembly")
		}
		scaffold = c.ref.Scaffolds[idx].Name
		rightAnchor = fmt.Sprintf("%d", pos)
	}
	c.w.WriteString(scaffold)
	c.w.WriteString(leftAnchor)
	c.w.WriteString(rightAnchor)
	c.w.WriteString(a.Seq.String())
	c.w.WriteInt64(int64(a.ID))
	return c.w.EndLine()
}

// Flush flushes the underlying tsv.Writer.
func (c *HalfAlignedCSVWriter) Flush() error { return c.w.Flush() }
