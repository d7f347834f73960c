package elim

import (
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Genotypes returns the possible unordered genotypes of individual i as
// 1-based code pairs in ascending order. Single-copy carriers report
// genotypes with a 0 second code.
func (t *Table) Genotypes(i int) []pedigree.Genotype {
	rows := t.Rows(i)
	var out []pedigree.Genotype
	switch {
	case !t.Carrier(i):
		return nil
	case t.Link == pedigree.LinkY:
		rows[0].Each(func(b int) { out = append(out, pedigree.Genotype{b + 1, 0}) })
	case t.hemizygous(i):
		for a, r := range rows {
			if !r.IsEmpty() {
				out = append(out, pedigree.Genotype{a + 1, 0})
			}
		}
	default:
		for a := 0; a < t.N; a++ {
			for b := a; b < t.N; b++ {
				if rows[a].Has(b) || rows[b].Has(a) {
					out = append(out, pedigree.Genotype{a + 1, b + 1})
				}
			}
		}
	}
	return out
}

// FormatGenotype renders a recoded genotype with the given labels.
func FormatGenotype(g pedigree.Genotype, label func(code int) string) string {
	if g[1] == 0 {
		return label(g[0])
	}
	return label(g[0]) + "/" + label(g[1])
}

// Dump writes one line per non-pruned member listing its possible genotypes.
func (t *Table) Dump(w io.Writer, label func(code int) string) error {
	for _, i := range t.members {
		ind := t.ped.Individuals[i]
		if ind.Flags.Has(pedigree.Pruned) {
			continue
		}
		gs := t.Genotypes(i)
		parts := make([]string, len(gs))
		for k, g := range gs {
			parts[k] = FormatGenotype(g, label)
		}
		if _, err := fmt.Fprintf(w, "%-12s %-3s %3d  %s\n", ind.ID, ind.Sex, len(gs), strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}
