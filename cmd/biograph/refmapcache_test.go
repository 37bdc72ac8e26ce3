package main

import (
	"context"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

func testRefAndSeqset() (*reference.Reference, *seqset.Seqset) {
	ref := reference.New([]reference.ScaffoldInfo{
		{Name: "chr1", Length: 8, Extents: []reference.Extent{{Start: 0, End: 8, Seq: dna.FromString("ACGTACGT")}}},
	})
	ss := seqset.Build([]dna.Seq{dna.FromString("ACGT"), dna.FromString("CGTA")})
	return ref, ss
}

func TestLoadOrBuildRefMapCachesAndReuses(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := dir + "/refmap.cache"

	ref, ss := testRefAndSeqset()

	built, err := loadOrBuildRefMap(ctx, path, ss, ref)
	require.NoError(t, err)

	cached, ok := tryLoadRefMap(ctx, path, ss.Size())
	require.True(t, ok, "expected a cached ref-map to be loadable after loadOrBuildRefMap")
	for id := 0; id < ss.Size(); id++ {
		require.Equalf(t, built.Get(id), cached.Get(id), "cached.Get(%d)", id)
	}

	reused, err := loadOrBuildRefMap(ctx, path, ss, ref)
	require.NoError(t, err)
	for id := 0; id < ss.Size(); id++ {
		require.Equalf(t, built.Get(id), reused.Get(id), "reused.Get(%d)", id)
	}
}

func TestLoadOrBuildRefMapIgnoresEmptyPath(t *testing.T) {
	ctx := context.Background()
	ref, ss := testRefAndSeqset()
	rm, err := loadOrBuildRefMap(ctx, "", ss, ref)
	require.NoError(t, err)
	require.NotNil(t, rm, "expected a built ref-map even with no cache path")
}

func TestTryLoadRefMapRejectsSizeMismatch(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := dir + "/refmap.cache"

	ref, ss := testRefAndSeqset()
	_, err := loadOrBuildRefMap(ctx, path, ss, ref)
	require.NoError(t, err)

	_, ok := tryLoadRefMap(ctx, path, ss.Size()+1)
	require.False(t, ok, "expected a size-mismatched cache to be rejected")
}

func TestTryLoadRefMapRejectsMissingFile(t *testing.T) {
	ctx := context.Background()
	_, ok := tryLoadRefMap(ctx, "/nonexistent/refmap.cache", 4)
	require.False(t, ok, "expected a missing cache file to be rejected, not panic")
}
