package phase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
)

func TestResolverCallsBackForAssembliesSharingAPhaseID(t *testing.T) {
	var calls [][]string
	// b is always the already-active assembly (the one added on an earlier
	// Check call); clearing the shared id from it is enough to stop the
	// conflict from recurring.
	r := NewResolver(func(a, b *assembly.Assembly, common []string) error {
		calls = append(calls, common)
		b.ResetPhaseIDs(setMinus(b.PhaseIDs(), common))
		return nil
	})

	first := variant(0, 10, "ACGTACGTAC", "p1")
	second := variant(5, 15, "ACGTACGTAC", "p1", "p2")

	require.NoError(t, r.Check(first))
	require.NoError(t, r.Check(second))

	require.Len(t, calls, 1)
	require.Equal(t, []string{"p1"}, calls[0])
	require.False(t, first.HasPhaseID("p1"), "resolver should have cleared p1 from the already-active assembly")
	require.True(t, second.HasPhaseID("p1"))
	require.True(t, second.HasPhaseID("p2"), "resolver should not have touched the newly-checked assembly")
}

func TestResolverSkipsAssembliesThatNoLongerOverlap(t *testing.T) {
	called := false
	r := NewResolver(func(a, b *assembly.Assembly, common []string) error {
		called = true
		return nil
	})

	a := variant(0, 5, "ACGTA", "p1")
	b := variant(10, 15, "ACGTA", "p1")

	require.NoError(t, r.Check(a))
	require.NoError(t, r.Check(b))
	require.False(t, called, "resolver should not be called for non-overlapping assemblies, even if they share a phase id")
}

func TestResolverErrorsIfResolveLeavesTheConflictInPlace(t *testing.T) {
	r := NewResolver(func(a, b *assembly.Assembly, common []string) error {
		return nil // doesn't actually clear anything
	})

	a := variant(0, 10, "ACGTACGTAC", "p1")
	b := variant(5, 15, "ACGTACGTAC", "p1")

	require.NoError(t, r.Check(a))
	require.Error(t, r.Check(b), "expected an error when the resolver fails to clear a shared phase id")
}
