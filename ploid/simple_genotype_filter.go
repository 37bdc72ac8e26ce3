package ploid

import "github.com/grailbio/biograph/assembly"

// SimpleGenotypeFilterOptions configures SimpleGenotypeFilter.
type SimpleGenotypeFilterOptions struct {
	// HetThreshold is the other-allele depth fraction below which a
	// variant is called heterozygous (0/1) rather than homozygous (1/1).
	HetThreshold float64
}

// DefaultSimpleGenotypeFilterOptions returns the original's threshold.
func DefaultSimpleGenotypeFilterOptions() SimpleGenotypeFilterOptions {
	return SimpleGenotypeFilterOptions{HetThreshold: 0.2}
}

// SimpleGenotypeFilter assigns a 0/1 or 1/1 genotype to a variant from its
// pair coverage alone, without the full genotyper's joint model: it's the
// depth-ratio heuristic the VCF stage applies to every record. The
// --simple-gt flag is parsed but not read, and the ploid limiter runs
// either way.
//
// otherDepth is the maximum pair coverage of every other allele ploid
// limiting considered at this locus; depth is a's own maximum pair
// coverage. With no coverage at all (both zero) the call is 1/1; with
// otherDepth zero and any coverage of a the ratio is 0, so the call is 0/1
// for any positive HetThreshold.
func SimpleGenotypeFilter(a *assembly.Assembly, otherDepth int, opts SimpleGenotypeFilterOptions) string {
	depth := maxInt(a.PairCoverage)
	total := depth + otherDepth
	if total == 0 {
		return "1/1"
	}
	if float64(otherDepth)/float64(total) < opts.HetThreshold {
		return "0/1"
	}
	return "1/1"
}

func maxInt(vals []int) int {
	m := 0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
