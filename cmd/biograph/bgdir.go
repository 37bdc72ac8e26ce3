package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/minio/highwayhash"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
	"github.com/grailbio/biograph/spiralfile"
)

// seqset/readmap construction from raw reads, and reference construction
// from raw FASTA, are both explicitly out of scope for those packages (see
// their package docs): they consume an already-built table. This file is
// that "already-built" boundary for the CLI: it reads the spiral_file
// parts named in spec.md §6.1 (a "bgdir" holding `reads`, a reference
// directory holding `scaffolds`) in a JSON encoding simple enough for a
// from-scratch loader, and calls seqset.Build/readmap.Build/reference.New
// directly. A production bgdir's packed bit-vector wire format is not
// reimplemented here, matching the scope boundary those packages already
// declare.
const (
	readsPartType     = "biograph_reads"
	scaffoldsPartType = "biograph_reference"
)

var (
	readsPartVersion     = spiralfile.Version{Major: 1, Minor: 0, Patch: 0}
	scaffoldsPartVersion = spiralfile.Version{Major: 1, Minor: 0, Patch: 0}
)

const mateLoopChecksumPart = "mate_loop_checksum"

// mateLoopChecksumKey is a fixed, non-secret HighwayHash key: it only needs
// to be stable between whatever wrote a bgdir's mate-loop checksum and
// whatever later reads it, not secret.
var mateLoopChecksumKey = make([]byte, 32)

// mateLoopChecksum hashes the mate/rev-comp index pairs that make up a
// bgdir's mate-loop table (readmap.Build's own structural check, via
// HasMateLoop, catches an internally-inconsistent table; this catches a
// table that was merely corrupted in storage or transit before Build ever
// saw it).
func mateLoopChecksum(raws []rawRead) ([]byte, error) {
	buf := make([]byte, 8*len(raws))
	for i, r := range raws {
		binary.LittleEndian.PutUint32(buf[i*8:], uint32(r.MateIndex))
		binary.LittleEndian.PutUint32(buf[i*8+4:], uint32(r.RevCompIdx))
	}
	h, err := highwayhash.New(mateLoopChecksumKey)
	if err != nil {
		return nil, err
	}
	if _, err := h.Write(buf); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// rawRead is one reads.json record: a read's sequence plus its pairing.
type rawRead struct {
	Seq        string `json:"seq"`
	IsForward  bool   `json:"is_forward"`
	MateIndex  int    `json:"mate_index"`  // index into the reads array, or -1
	RevCompIdx int    `json:"revcomp_index"` // index into the reads array, or -1
}

// rawScaffold is one scaffolds.json record: a scaffold's name and its full
// sequence, with 'N' runs marking gaps.
type rawScaffold struct {
	Name string `json:"name"`
	Seq  string `json:"seq"`
}

// loadBgdir opens the spiral_file archive at path and builds a Seqset and
// Readmap from its `reads` part. sample selects a per-sample subdirectory
// in a multi-sample bgdir (--sample); empty selects the top-level reads
// part of a single-sample bgdir.
func loadBgdir(ctx context.Context, path, sample string) (*seqset.Seqset, *readmap.Readmap, error) {
	open, err := spiralfile.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "bgdir: opening", path)
	}
	if sample != "" {
		open = open.OpenSubpart(sample)
	}
	part := open.OpenSubpart("reads")
	if err := part.EnforceMaxVersion(readsPartType, readsPartVersion); err != nil {
		return nil, nil, errors.E(err, "bgdir: reads part")
	}
	data, err := part.GetPartContents("data")
	if err != nil {
		return nil, nil, errors.E(err, "bgdir: reading reads part")
	}
	var raws []rawRead
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, errors.E(err, "bgdir: parsing reads.json")
	}
	if stored, err := part.GetPartContents(mateLoopChecksumPart); err == nil {
		want, err := mateLoopChecksum(raws)
		if err != nil {
			return nil, nil, errors.E(err, "bgdir: computing mate-loop checksum")
		}
		if !bytes.Equal(stored, want) {
			return nil, nil, errors.E("bgdir: mate-loop table checksum mismatch at", path)
		}
	}

	seqs := make([]dna.Seq, len(raws))
	for i, r := range raws {
		seqs[i] = dna.FromString(r.Seq)
	}
	ss := seqset.Build(seqs)

	reads := make([]readmap.Read, len(raws))
	for i, r := range raws {
		mate := readmap.NoRead
		if r.MateIndex >= 0 {
			mate = readmap.ReadID(r.MateIndex)
		}
		revComp := readmap.NoRead
		if r.RevCompIdx >= 0 {
			revComp = readmap.ReadID(r.RevCompIdx)
		}
		reads[i] = readmap.Read{
			SeqsetID:      ss.FindExisting(seqs[i]),
			Length:        len(seqs[i]),
			IsForward:     r.IsForward,
			MateReadID:    mate,
			RevCompReadID: revComp,
		}
	}
	rm := readmap.Build(reads)
	if !rm.HasMateLoop() {
		return nil, nil, errors.E("bgdir: MissingCapability: readmap at", path, "has no mate-loop table; upgrade the bgdir")
	}
	return ss, rm, nil
}

// loadReference opens the spiral_file archive at path and builds a
// Reference from its `scaffolds` part, splitting each scaffold's sequence
// into N-free extents.
func loadReference(ctx context.Context, path string) (*reference.Reference, error) {
	open, err := spiralfile.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "reference: opening", path)
	}
	part := open.OpenSubpart("scaffolds")
	if err := part.EnforceMaxVersion(scaffoldsPartType, scaffoldsPartVersion); err != nil {
		return nil, errors.E(err, "reference: scaffolds part")
	}
	data, err := part.GetPartContents("data")
	if err != nil {
		return nil, errors.E(err, "reference: reading scaffolds part")
	}
	var raws []rawScaffold
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.E(err, "reference: parsing scaffolds.json")
	}

	scaffolds := make([]reference.ScaffoldInfo, len(raws))
	for i, r := range raws {
		scaffolds[i] = reference.ScaffoldInfo{
			Name:    r.Name,
			Length:  len(r.Seq),
			Extents: extentsFromString(r.Seq),
		}
	}
	return reference.New(scaffolds), nil
}

// extentsFromString splits s into maximal N-free runs.
func extentsFromString(s string) []reference.Extent {
	var extents []reference.Extent
	i := 0
	for i < len(s) {
		if s[i] == 'N' || s[i] == 'n' {
			i++
			continue
		}
		start := i
		for i < len(s) && s[i] != 'N' && s[i] != 'n' {
			i++
		}
		extents = append(extents, reference.Extent{Start: start, End: i, Seq: dna.FromString(s[start:i])})
	}
	return extents
}

// createBgdir writes a bgdir archive with the given reads, for use by
// tests and by any future `biograph import`-style tool. Not wired to a
// CLI flag: spec.md names no subcommand that builds a bgdir from scratch.
func createBgdir(ctx context.Context, path string, raws []rawRead) error {
	cs, err := spiralfile.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bgdir: creating", path)
	}
	data, err := json.Marshal(raws)
	if err != nil {
		return errors.E(err, "bgdir: encoding reads.json")
	}
	sub := cs.CreateSubpart("reads")
	if err := sub.CreatePartContents("data", data); err != nil {
		return errors.E(err, "bgdir: writing reads part")
	}
	checksum, err := mateLoopChecksum(raws)
	if err != nil {
		return errors.E(err, "bgdir: computing mate-loop checksum")
	}
	if err := sub.CreatePartContents(mateLoopChecksumPart, checksum); err != nil {
		return errors.E(err, "bgdir: writing mate-loop checksum")
	}
	return sub.SetVersion(readsPartType, readsPartVersion)
}

// createReferenceDir writes a reference archive with the given scaffolds.
func createReferenceDir(ctx context.Context, path string, raws []rawScaffold) error {
	cs, err := spiralfile.Create(ctx, path)
	if err != nil {
		return errors.E(err, "reference: creating", path)
	}
	data, err := json.Marshal(raws)
	if err != nil {
		return errors.E(err, "reference: encoding scaffolds.json")
	}
	sub := cs.CreateSubpart("scaffolds")
	if err := sub.CreatePartContents("data", data); err != nil {
		return errors.E(err, "reference: writing scaffolds part")
	}
	return sub.SetVersion(scaffoldsPartType, scaffoldsPartVersion)
}
