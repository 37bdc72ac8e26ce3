package assembly

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMLFeaturesZScoresAcrossBatch(t *testing.T) {
	a1 := New()
	a1.Score = 1
	a2 := New()
	a2.Score = 3
	a3 := New()
	a3.Score = 5

	NormalizeMLFeatures([]*Assembly{a1, a2, a3})

	require.Equal(t, 0.0, a2.MLFeatures["score"], "median assembly should normalize to 0")
	require.Less(t, a1.MLFeatures["score"], 0.0)
	require.Greater(t, a3.MLFeatures["score"], 0.0)
	require.Equal(t, -a3.MLFeatures["score"], a1.MLFeatures["score"], "expected a symmetric z-score spread")
}

func TestNormalizeMLFeaturesConstantValueYieldsZero(t *testing.T) {
	a1, a2 := New(), New()
	a1.OtherDepth, a2.OtherDepth = 4, 4

	NormalizeMLFeatures([]*Assembly{a1, a2})

	require.Equal(t, 0.0, a1.MLFeatures["other_depth"])
	require.Equal(t, 0.0, a2.MLFeatures["other_depth"])
}

func TestNormalizeMLFeaturesEmptyBatchIsNoop(t *testing.T) {
	NormalizeMLFeatures(nil)
}
