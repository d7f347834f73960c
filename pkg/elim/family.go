package elim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/genelim/pkg/alleleset"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// ErrInconsistent is the sentinel wrapped by [*InconsistencyError].
var ErrInconsistent = errors.New("mendelian inconsistency")

// errEmptyOffspring reports an offspring left without genotypes by a family
// step that found compatible parents; it indicates a defect in the step itself.
var errEmptyOffspring = errors.New("offspring emptied by consistent family")

// InconsistencyError names the first family whose genotype sets admit no
// Mendelian-consistent assignment.
type InconsistencyError struct {
	Locus     string
	Component int
	Family    int
	Sire, Dam string
	Kids      []string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("locus %s: inconsistent family %d (%s x %s -> %s)",
		e.Locus, e.Family, e.Sire, e.Dam, strings.Join(e.Kids, ", "))
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistent }

func (t *Table) inconsistency(f int) *InconsistencyError {
	fam := t.ped.Families[f]
	e := &InconsistencyError{
		Locus:     t.Locus,
		Component: t.Component,
		Family:    f,
		Sire:      t.ped.ID(fam.Sire),
		Dam:       t.ped.ID(fam.Dam),
	}
	for _, k := range fam.Kids {
		e.Kids = append(e.Kids, t.ped.ID(k))
	}
	return e
}

// DoFamily restricts the genotype sets of one family to the genotypes that
// take part in at least one Mendelian-consistent assignment of the family.
// Individuals whose sets changed are appended to changed. It returns an
// [*InconsistencyError] when no assignment exists.
func (t *Table) DoFamily(f int, changed []int) ([]int, error) {
	fam := t.ped.Families[f]
	s := t.scratch()
	s.kids = s.kids[:0]
	for _, k := range fam.Kids {
		if !t.ped.Individuals[k].Flags.Has(pedigree.Pruned) {
			s.kids = append(s.kids, k)
		}
	}
	s.kidRows = growSets(s.kidRows, t.N)
	s.sireSet = growSets(s.sireSet, t.N)
	s.damSet = growSets(s.damSet, t.N)

	var ok bool
	switch t.Link {
	case pedigree.LinkX:
		ok = t.familyX(fam, s)
	case pedigree.LinkY:
		ok = t.familyY(fam, s)
	default:
		ok = t.familyAuto(fam, s)
	}
	if !ok {
		return changed, t.inconsistency(f)
	}

	if t.restrict(fam.Sire, s.sireSet) {
		changed = append(changed, fam.Sire)
	}
	if t.Link != pedigree.LinkY && t.restrict(fam.Dam, s.damSet) {
		changed = append(changed, fam.Dam)
	}
	for _, k := range s.kids {
		if !t.Carrier(k) {
			continue
		}
		mask := s.kidRows
		if t.hemizygous(k) {
			// X-linked sons: any compatible maternal allele, placeholder paternal bit.
			s.hemi = growSets(s.hemi, t.N)
			mask = s.hemi
			for a, r := range s.kidRows {
				mask[a] = 0
				if !r.IsEmpty() {
					mask[a] = alleleset.Bit(0)
				}
			}
		}
		if t.restrict(k, mask) {
			changed = append(changed, k)
		}
		if t.Empty(k) {
			return changed, fmt.Errorf("%w: %s in family %d", errEmptyOffspring, t.ped.ID(k), f)
		}
	}
	return changed, nil
}

// restrict intersects the rows of individual i with mask and reports a change.
func (t *Table) restrict(i int, mask []alleleset.Set) bool {
	rows := t.Rows(i)
	changed := false
	for a, r := range rows {
		if nr := r & mask[a]; nr != r {
			rows[a] = nr
			changed = true
		}
	}
	return changed
}

// hemizygous reports whether individual i carries a single X-linked copy.
func (t *Table) hemizygous(i int) bool {
	return t.Link == pedigree.LinkX && t.ped.Individuals[i].Sex == pedigree.SexMale
}

func (t *Table) scratch() *Scratch {
	if t.s == nil {
		t.s = NewScratch()
	}
	return t.s
}

// unorderedPairs lists each possible unordered genotype {a,b} of individual
// i once, with mask = {a,b}.
func (t *Table) unorderedPairs(i int, out []pair) []pair {
	rows := t.Rows(i)
	for a, r := range rows {
		r.Each(func(b int) {
			if b > a && rows[b].Has(a) {
				return
			}
			out = append(out, pair{a: a, b: b, mask: alleleset.Bit(a) | alleleset.Bit(b)})
		})
	}
	return out
}

// familyAuto handles autosomal transmission. Sire pairs give the possible
// paternal alleles of the offspring, dam pairs the maternal alleles.
func (t *Table) familyAuto(fam *pedigree.Family, s *Scratch) bool {
	// Offspring with identical sets impose identical constraints.
	s.uniq = s.uniq[:0]
	for _, k := range s.kids {
		dup := false
		for _, u := range s.uniq {
			if equalRows(t.Rows(k), t.Rows(u)) {
				dup = true
				break
			}
		}
		if !dup {
			s.uniq = append(s.uniq, k)
		}
	}
	s.ccm = growSets(s.ccm, len(s.uniq))
	s.ccm1 = growSets(s.ccm1, len(s.uniq))
	for x, u := range s.uniq {
		s.ccm[x] = t.Paternal(u)
		s.ccm1[x] = t.Maternal(u)
	}

	s.pairs = t.unorderedPairs(fam.Sire, s.pairs[:0])
	sirePairs := len(s.pairs)
	s.pairs = t.unorderedPairs(fam.Dam, s.pairs)
	sire, dam := s.pairs[:sirePairs], s.pairs[sirePairs:]

	nc := 0
	for _, dp := range dam {
		if !t.allMeet(s.ccm1[:len(s.uniq)], dp.mask) {
			continue
		}
		for _, sp := range sire {
			if !t.compatibleAuto(s, dp, sp) {
				continue
			}
			s.kidRows[dp.a] |= sp.mask
			s.kidRows[dp.b] |= sp.mask
			s.sireSet[sp.a] = s.sireSet[sp.a].Add(sp.b)
			s.sireSet[sp.b] = s.sireSet[sp.b].Add(sp.a)
			s.damSet[dp.a] = s.damSet[dp.a].Add(dp.b)
			s.damSet[dp.b] = s.damSet[dp.b].Add(dp.a)
			nc++
		}
	}
	return nc > 0
}

func (t *Table) compatibleAuto(s *Scratch, dp, sp pair) bool {
	for x, u := range s.uniq {
		if !s.ccm[x].Meets(sp.mask) {
			return false
		}
		rows := t.Rows(u)
		if !rows[dp.a].Meets(sp.mask) && !rows[dp.b].Meets(sp.mask) {
			return false
		}
	}
	return true
}

func (t *Table) allMeet(sets []alleleset.Set, mask alleleset.Set) bool {
	for _, c := range sets {
		if !c.Meets(mask) {
			return false
		}
	}
	return true
}

// familyX handles X-linked transmission: the sire passes his single copy to
// daughters, the dam one of her two copies to every child.
func (t *Table) familyX(fam *pedigree.Family, s *Scratch) bool {
	s.pairs = t.unorderedPairs(fam.Dam, s.pairs[:0])
	sireRows := t.Rows(fam.Sire)
	nc := 0
	for _, dp := range s.pairs {
		for i, r := range sireRows {
			if r.IsEmpty() {
				continue
			}
			cm := alleleset.Bit(i)
			ok := true
			for _, k := range s.kids {
				want := cm
				if t.hemizygous(k) {
					want = alleleset.Bit(0)
				}
				rows := t.Rows(k)
				if !rows[dp.a].Meets(want) && !rows[dp.b].Meets(want) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			s.kidRows[dp.a] |= cm
			s.kidRows[dp.b] |= cm
			s.sireSet[i] = alleleset.Bit(0)
			s.damSet[dp.a] = s.damSet[dp.a].Add(dp.b)
			s.damSet[dp.b] = s.damSet[dp.b].Add(dp.a)
			nc++
		}
	}
	return nc > 0
}

// familyY handles Y-linked transmission from sire to sons. Only row 0 is used.
func (t *Table) familyY(fam *pedigree.Family, s *Scratch) bool {
	valid := t.Rows(fam.Sire)[0]
	for _, k := range s.kids {
		if t.Carrier(k) {
			valid &= t.Rows(k)[0]
		}
	}
	if valid.IsEmpty() {
		return false
	}
	s.kidRows[0] = valid
	s.sireSet[0] = valid
	return true
}

func equalRows(a, b []alleleset.Set) bool {
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
