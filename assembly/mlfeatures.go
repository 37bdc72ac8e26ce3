package assembly

import "gonum.org/v1/gonum/stat"

// mlFeatureKeys names the raw per-assembly values normalized into
// MLFeatures (spec.md §3.6's optional numeric feature bundle).
var mlFeatureKeys = []string{"score", "strand_count", "genotype_quality", "other_depth"}

func rawMLFeature(a *Assembly, key string) float64 {
	switch key {
	case "score":
		return a.Score
	case "strand_count":
		return float64(a.StrandCount)
	case "genotype_quality":
		return a.GenotypeQuality
	case "other_depth":
		return float64(a.OtherDepth)
	}
	return 0
}

// NormalizeMLFeatures z-score normalizes each of mlFeatureKeys across
// assemblies, writing the result into every assembly's MLFeatures. The
// batch should be one scaffold's worth of post-coverage assemblies:
// normalizing across scaffolds with different coverage regimes would mix
// unrelated distributions.
func NormalizeMLFeatures(assemblies []*Assembly) {
	if len(assemblies) == 0 {
		return
	}
	vals := make([]float64, len(assemblies))
	for _, key := range mlFeatureKeys {
		for i, a := range assemblies {
			vals[i] = rawMLFeature(a, key)
		}
		mean, std := stat.MeanStdDev(vals, nil)
		for i, a := range assemblies {
			if a.MLFeatures == nil {
				a.MLFeatures = make(map[string]float64, len(mlFeatureKeys))
			}
			if std == 0 {
				a.MLFeatures[key] = 0
				continue
			}
			a.MLFeatures[key] = (vals[i] - mean) / std
		}
	}
}
