package main

import (
	"context"

	"github.com/golang/snappy"
	"github.com/grailbio/base/log"

	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/refmap"
	"github.com/grailbio/biograph/seqset"
	"github.com/grailbio/biograph/spiralfile"
)

const refMapPartType = "biograph_refmap"

var refMapPartVersion = spiralfile.Version{Major: 1, Minor: 0, Patch: 0}

// loadOrBuildRefMap reuses a cached ref-map at path when it matches ss, and
// rebuilds (and, if path is set, re-caches) it otherwise. --ref-map is
// framed in spec.md §6.2 as "cache/reuse", not a correctness requirement,
// so any problem reading the cache falls back to a fresh Build rather than
// failing the run.
func loadOrBuildRefMap(ctx context.Context, path string, ss *seqset.Seqset, ref *reference.Reference) (*refmap.RefMap, error) {
	if path != "" {
		if rm, ok := tryLoadRefMap(ctx, path, ss.Size()); ok {
			log.Printf("discover: reusing cached ref-map from %s", path)
			return rm, nil
		}
	}
	rm, err := refmap.Build(ss, ref)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := saveRefMap(ctx, path, rm); err != nil {
			log.Error.Printf("discover: caching ref-map to %s: %v", path, err)
		}
	}
	return rm, nil
}

// tryLoadRefMap loads and snappy-decompresses a cached ref-map. Any
// failure (missing file, wrong part type/version, size mismatch against
// the current seqset) is reported as "no usable cache" rather than an
// error.
func tryLoadRefMap(ctx context.Context, path string, wantSize int) (*refmap.RefMap, bool) {
	open, err := spiralfile.Open(ctx, path)
	if err != nil {
		return nil, false
	}
	if err := open.EnforceMaxVersion(refMapPartType, refMapPartVersion); err != nil {
		return nil, false
	}
	compressed, err := open.GetPartContents("data")
	if err != nil {
		return nil, false
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, false
	}
	if len(data) != wantSize {
		return nil, false
	}
	return refmap.FromBytes(data), true
}

func saveRefMap(ctx context.Context, path string, rm *refmap.RefMap) error {
	cs, err := spiralfile.Create(ctx, path)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, rm.Bytes())
	if err := cs.CreatePartContents("data", compressed); err != nil {
		return err
	}
	return cs.SetVersion(refMapPartType, refMapPartVersion)
}
