package assembly

import (
	"fmt"
	"io"
)

// WriteDot renders a set of assemblies as a Graphviz digraph for debugging
// the discovery pipeline, grounded on the original implementation's
// assembly_dot.{h,cpp} (original_source/modules/variants). Each assembly is
// a node labeled with its id, offsets and tags; an edge connects an
// assembly to every assembly listed in its MergedAssemblyIDs, showing which
// dedup/phase-join merges produced it.
func WriteDot(w io.Writer, assemblies []*Assembly) error {
	if _, err := fmt.Fprintln(w, "digraph assemblies {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=LR;"); err != nil {
		return err
	}
	byID := make(map[ID]*Assembly, len(assemblies))
	for _, a := range assemblies {
		byID[a.ID] = a
	}
	for _, a := range assemblies {
		label := fmt.Sprintf("id=%d\\n[%v,%v)\\nlen=%d", a.ID, a.LeftOffset, a.RightOffset, len(a.Seq))
		if a.MatchesReference {
			label += "\\nREF"
		}
		for _, t := range a.Tags() {
			label += "\\n" + t
		}
		shape := "box"
		if a.MatchesReference {
			shape = "ellipse"
		}
		if _, err := fmt.Fprintf(w, "  a%d [label=\"%s\", shape=%s];\n", a.ID, label, shape); err != nil {
			return err
		}
	}
	for _, a := range assemblies {
		for _, mid := range a.MergedAssemblyIDs {
			if _, ok := byID[mid]; !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "  a%d -> a%d;\n", mid, a.ID); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
