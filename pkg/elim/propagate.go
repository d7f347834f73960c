package elim

import "github.com/matzehuels/genelim/pkg/pedigree"

// Result summarises one propagation run.
type Result struct {
	Steps   int `json:"steps"`   // family steps executed
	Changes int `json:"changes"` // individual updates that shrank a set
}

// Propagate runs [Table.DoFamily] over families until no family is dirty.
// Families with at least one typed member start dirty, in the given order;
// a family becomes dirty again whenever one of its members changes in
// another family's step. It stops at the first inconsistent family.
func (t *Table) Propagate(families []int) (Result, error) {
	s := t.scratch()
	nf := len(t.ped.Families)
	s.inSet = growBools(s.inSet, nf)
	s.dirty = growBools(s.dirty, nf)
	s.queue = s.queue[:0]
	for _, f := range families {
		s.inSet[f] = true
	}
	for _, f := range families {
		if t.typed(f) && !s.dirty[f] {
			s.dirty[f] = true
			s.queue = append(s.queue, f)
		}
	}

	var res Result
	for head := 0; head < len(s.queue); head++ {
		f := s.queue[head]
		s.dirty[f] = false
		res.Steps++

		var err error
		s.changed, err = t.DoFamily(f, s.changed[:0])
		if err != nil {
			return res, err
		}
		res.Changes += len(s.changed)
		for _, i := range s.changed {
			t.markFamilies(i, f)
		}
	}
	return res, nil
}

func (t *Table) typed(f int) bool {
	fam := t.ped.Families[f]
	for _, i := range fam.Members() {
		ind := t.ped.Individuals[i]
		if ind.Flags.Has(pedigree.HasData) && !ind.Flags.Has(pedigree.Pruned) {
			return true
		}
	}
	return false
}

// markFamilies queues every family of individual i other than skip.
func (t *Table) markFamilies(i, skip int) {
	s := t.s
	ind := t.ped.Individuals[i]
	mark := func(f int) {
		if f == pedigree.None || f == skip || !s.inSet[f] || s.dirty[f] {
			return
		}
		s.dirty[f] = true
		s.queue = append(s.queue, f)
	}
	mark(ind.Family)
	for _, f := range ind.Families {
		mark(f)
	}
}
