package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/interval"
)

func TestScaffoldRegionsWithNoBedCoversWholeScaffold(t *testing.T) {
	got := scaffoldRegions(nil, "chr1", 100)
	require.Equal(t, [][2]int{{0, 100}}, got)
}

func TestScaffoldRegionsRestrictsToBedIntervals(t *testing.T) {
	bed, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 10, End: 20},
		{ChrName: "chr1", Start0: 50, End: 60},
	}, interval.NewBEDOpts{})
	require.NoError(t, err)
	got := scaffoldRegions(&bed, "chr1", 100)
	require.Equal(t, [][2]int{{10, 20}, {50, 60}}, got)
}

func TestScaffoldRegionsClipsLastIntervalToScaffoldEnd(t *testing.T) {
	bed, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 10, End: 60},
	}, interval.NewBEDOpts{})
	require.NoError(t, err)
	got := scaffoldRegions(&bed, "chr1", 50)
	require.Equal(t, [][2]int{{10, 50}}, got)
}

func TestScaffoldRegionsUnmentionedScaffoldIsEmpty(t *testing.T) {
	bed, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 10, End: 20},
	}, interval.NewBEDOpts{})
	require.NoError(t, err)
	require.Nil(t, scaffoldRegions(&bed, "chr2", 100))
}

func TestLoadBedRegionsNoPathReturnsNil(t *testing.T) {
	bed, err := loadBedRegions(nil, "")
	require.NoError(t, err)
	require.Nil(t, bed, "expected a nil BEDUnion when --bed is unset")
}
