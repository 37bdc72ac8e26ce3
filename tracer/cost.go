package tracer

// CostModel weights the push tracer's priority queue (spec.md §4.5.1): the
// tracer always expands the lowest-cost NextPath next, so lower is
// "more promising". PairMatchBonus is negative so a step confirmed by a
// read pair reduces cost rather than increasing it.
type CostModel struct {
	BaseCost              float64
	AmbiguousBaseCost     float64
	DecreaseOverlapCost   float64
	PairMatchBonus        float64
	LoopCost              float64
	TraverseReferenceCost float64
	DeadEndCost           float64
}

// DefaultCostModel matches the original implementation's shipped weights.
func DefaultCostModel() CostModel {
	return CostModel{
		BaseCost:              1.0,
		AmbiguousBaseCost:     4.0,
		DecreaseOverlapCost:   2.0,
		PairMatchBonus:        -8.0,
		LoopCost:              1000.0,
		TraverseReferenceCost: 0.5,
		DeadEndCost:           1e6,
	}
}
