// Package prune marks individuals and families that carry no information for
// the current locus.
//
// Pruning runs once per locus and component, before recoding. It only ever
// sets flags (Pruned, Singleton) and clears [pedigree.Family.Active]; nothing
// is ever un-pruned within a locus pass, so the fixpoint always terminates.
package prune

import "github.com/matzehuels/genelim/pkg/pedigree"

// Options controls the pruning pass.
type Options struct {
	// Uninformative enables the iterative removal of untyped leaves and of
	// families that reduce to a single informative child. When false only
	// singletons are detected.
	Uninformative bool
}

// Result summarises a pruning pass over one component.
type Result struct {
	Pruned     int // individuals newly flagged Pruned
	Singletons int // individuals flagged Singleton
	Inactive   int // families deactivated
}

// Component prunes the members and families of c in place.
func Component(p *pedigree.Pedigree, c *pedigree.Component, opts Options) Result {
	var res Result
	nfam := make(map[int]int, len(c.Members))
	for _, i := range c.Members {
		for _, f := range p.Individuals[i].Families {
			if p.Families[f].Active {
				nfam[i]++
			}
		}
	}

	informative := func(i int) bool { return p.Individuals[i].Flags.Has(pedigree.HasData) }
	prune := func(i int) {
		ind := p.Individuals[i]
		if !ind.Flags.Has(pedigree.Pruned) {
			ind.Flags |= pedigree.Pruned
			res.Pruned++
		}
	}
	// A parent is removable when it is untyped, has no other family and
	// is not itself linked upward through an active family.
	removable := func(i int) bool {
		ind := p.Individuals[i]
		if informative(i) || nfam[i] >= 2 {
			return false
		}
		return ind.Family == pedigree.None || !p.Families[ind.Family].Active
	}

	for changed := opts.Uninformative; changed; {
		changed = false
		for _, f := range c.Families {
			fam := p.Families[f]
			if !fam.Active {
				continue
			}
			kept := 0
			for _, kid := range fam.Kids {
				if p.Individuals[kid].Flags.Has(pedigree.Pruned) {
					continue
				}
				if informative(kid) || nfam[kid] > 0 {
					kept++
					continue
				}
				prune(kid)
				changed = true
			}
			if kept == 1 && removable(fam.Sire) && removable(fam.Dam) {
				kept = 0
			}
			if kept > 0 {
				continue
			}
			fam.Active = false
			res.Inactive++
			changed = true
			for _, par := range []int{fam.Sire, fam.Dam} {
				nfam[par]--
				if nfam[par] == 0 && !informative(par) {
					prune(par)
				}
			}
		}
	}

	for _, i := range c.Members {
		ind := p.Individuals[i]
		if ind.Flags.Has(pedigree.Pruned) || nfam[i] > 0 {
			continue
		}
		if ind.Family != pedigree.None && p.Families[ind.Family].Active {
			continue
		}
		ind.Flags |= pedigree.Singleton
		res.Singletons++
		if !informative(i) {
			prune(i)
		}
	}
	return res
}

// ActiveFamilies returns the active families of c in index order.
func ActiveFamilies(p *pedigree.Pedigree, c *pedigree.Component) []int {
	out := make([]int, 0, len(c.Families))
	for _, f := range c.Families {
		if p.Families[f].Active {
			out = append(out, f)
		}
	}
	return out
}

// Live returns the members of c that are neither pruned nor singletons.
func Live(p *pedigree.Pedigree, c *pedigree.Component) []int {
	out := make([]int, 0, len(c.Members))
	for _, i := range c.Members {
		if p.Individuals[i].Flags&(pedigree.Pruned|pedigree.Singleton) == 0 {
			out = append(out, i)
		}
	}
	return out
}
