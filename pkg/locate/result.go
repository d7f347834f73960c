package locate

import (
	"fmt"

	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Blank is one observation removed by the search.
type Blank struct {
	Individual int               `json:"individual"`
	ID         string            `json:"id"`
	Family     int               `json:"family"`
	Sire       string            `json:"sire"`
	Dam        string            `json:"dam"`
	Genotype   pedigree.Genotype `json:"genotype"`
}

// Suspect returns the error-file form of the blank.
func (b Blank) Suspect() Suspect { return Suspect{ID: b.ID, Sire: b.Sire, Dam: b.Dam} }

// Result is the outcome of [Locate].
type Result struct {
	Locus   string  `json:"locus"`
	Blanked []Blank `json:"blanked"`
	// Families lists the families implicated during the search.
	Families []int `json:"families"`
	// Typed counts individuals with at least one observed allele.
	Typed  int `json:"typed"`
	Checks int `json:"checks"`
	// Partial is set when the search stopped before the locus was consistent.
	Partial bool `json:"partial"`
	// FromSuspects is set when the stored suspects resolved the locus.
	FromSuspects bool `json:"from_suspects"`
	// Snapshot holds the original observation of every individual.
	Snapshot []pedigree.Genotype `json:"-"`
}

// Suspects returns the blanked individuals in error-file form.
func (r *Result) Suspects() []Suspect {
	out := make([]Suspect, len(r.Blanked))
	for k, b := range r.Blanked {
		out[k] = b.Suspect()
	}
	return out
}

// Percent returns the blanked share of typed individuals.
func (r *Result) Percent() float64 {
	if r.Typed == 0 {
		return 0
	}
	return 100 * float64(len(r.Blanked)) / float64(r.Typed)
}

// Summary formats the size of the blanked set, e.g. "2 out of 40 (5.00%)".
func (r *Result) Summary() string {
	return fmt.Sprintf("%d out of %d (%.2f%%)", len(r.Blanked), r.Typed, r.Percent())
}

// Restore copies the original observations back into l.
func (r *Result) Restore(l *pedigree.Locus) {
	copy(l.Genotypes, r.Snapshot)
}

// Apply blanks the result's individuals in l.
func (r *Result) Apply(l *pedigree.Locus) {
	for _, b := range r.Blanked {
		l.Genotypes[b.Individual] = pedigree.Genotype{}
	}
}
