package locate

import (
	"errors"

	"github.com/matzehuels/genelim/pkg/elim"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/prune"
	"github.com/matzehuels/genelim/pkg/recode"
)

// All selects every component in a [Check].
const All = -1

// Check runs genotype elimination on locus l, restricted to component c
// (or every component for [All]), and returns the first inconsistent
// family, or pedigree.None when the data are consistent. Errors other than
// an inconsistency are returned as is.
type Check func(l *pedigree.Locus, c int) (int, error)

// CheckOptions configure [Eliminator].
type CheckOptions struct {
	Prune  prune.Options
	Recode recode.Options
}

// Eliminator returns a [Check] that prunes, recodes and eliminates a copy of
// the locus, leaving l itself untouched. Per-locus flags of p are reset on
// every call.
func Eliminator(p *pedigree.Pedigree, opts CheckOptions) Check {
	s := elim.NewScratch()
	return func(l *pedigree.Locus, c int) (int, error) {
		work := l.Clone()
		p.ResetLocus()
		elim.CleanSexLinked(p, work)
		work.MarkData(p)

		comps := p.Components
		if c != All {
			comps = []*pedigree.Component{p.Components[c]}
		}
		for _, comp := range comps {
			prune.Component(p, comp, opts.Prune)
			tr, err := recode.Component(p, comp, work, opts.Recode)
			if err != nil {
				return pedigree.None, err
			}
			tab, err := elim.NewTable(p, comp, work, tr.N(), s)
			if err != nil {
				return pedigree.None, err
			}
			_, err = tab.Propagate(prune.ActiveFamilies(p, comp))
			var ie *elim.InconsistencyError
			switch {
			case errors.As(err, &ie):
				return ie.Family, nil
			case err != nil:
				return pedigree.None, err
			}
		}
		return pedigree.None, nil
	}
}
