package main

import (
	"context"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/biograph/interval"
)

// loadBedRegions parses --bed, if given, into a BEDUnion keyed by scaffold
// name. A nil result (no error, no path) means "no restriction": every
// scaffold is traced in full.
func loadBedRegions(ctx context.Context, path string) (*interval.BEDUnion, error) {
	if path == "" {
		return nil, nil
	}
	bed, err := interval.NewBEDUnionFromPath(path, interval.NewBEDOpts{})
	if err != nil {
		return nil, errors.E(err, "discover: loading --bed", path)
	}
	return &bed, nil
}

// scaffoldRegions returns the [start, end) ranges of a scaffold that
// discovery should trace. With no BED restriction, that's the whole
// scaffold. Otherwise it's the merged set of BED-covered ranges, walked with
// a UnionScanner over the chromosome's endpoint sequence.
func scaffoldRegions(bed *interval.BEDUnion, name string, endPos int) [][2]int {
	if bed == nil {
		return [][2]int{{0, endPos}}
	}
	endpoints := bed.Endpoints(name)
	if len(endpoints) == 0 {
		return nil
	}
	var regions [][2]int
	scanner := interval.NewUnionScanner(endpoints)
	var start, end interval.PosType
	for scanner.Scan(&start, &end, interval.PosType(endPos)) {
		regions = append(regions, [2]int{int(start), int(end)})
	}
	return regions
}
