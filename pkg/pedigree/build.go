package pedigree

import (
	"fmt"
	"slices"

	"github.com/matzehuels/genelim/pkg/errors"
)

// New builds a pedigree from records. Records may appear in any order;
// individual indices follow record order.
func New(records []Record) (*Pedigree, error) {
	p := &Pedigree{
		Individuals: make([]*Individual, len(records)),
		byID:        make(map[string]int, len(records)),
	}
	for i, r := range records {
		if err := errors.ValidateIdentifier(r.ID); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, dup := p.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		p.byID[r.ID] = i
		p.Individuals[i] = &Individual{
			ID:        r.ID,
			Index:     i,
			Sex:       r.Sex,
			Sire:      None,
			Dam:       None,
			Family:    None,
			Component: None,
		}
	}

	if err := p.linkParents(records); err != nil {
		return nil, err
	}
	if err := p.checkAncestry(); err != nil {
		return nil, err
	}
	p.buildFamilies()
	p.labelComponents()
	p.ResetLocus()
	return p, nil
}

func isMissingParent(id string) bool { return id == "" || id == "0" }

func (p *Pedigree) linkParents(records []Record) error {
	for i, r := range records {
		noSire, noDam := isMissingParent(r.Sire), isMissingParent(r.Dam)
		if noSire && noDam {
			continue
		}
		if noSire != noDam {
			return fmt.Errorf("%w: %s", ErrSingleParent, r.ID)
		}
		sire, ok := p.byID[r.Sire]
		if !ok {
			return fmt.Errorf("%w: sire %s of %s", ErrUnknownParent, r.Sire, r.ID)
		}
		dam, ok := p.byID[r.Dam]
		if !ok {
			return fmt.Errorf("%w: dam %s of %s", ErrUnknownParent, r.Dam, r.ID)
		}
		if p.Individuals[sire].Sex == SexFemale || p.Individuals[dam].Sex == SexMale || sire == dam {
			return fmt.Errorf("%w: %s x %s", ErrParentSex, r.Sire, r.Dam)
		}
		p.Individuals[i].Sire = sire
		p.Individuals[i].Dam = dam
	}
	return nil
}

// checkAncestry walks parent links with white/gray/black colouring.
func (p *Pedigree) checkAncestry() error {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(p.Individuals))
	var visit func(i int) error
	visit = func(i int) error {
		switch color[i] {
		case gray:
			return fmt.Errorf("%w: %s", ErrSelfAncestor, p.Individuals[i].ID)
		case black:
			return nil
		}
		color[i] = gray
		ind := p.Individuals[i]
		for _, par := range []int{ind.Sire, ind.Dam} {
			if par == None {
				continue
			}
			if err := visit(par); err != nil {
				return err
			}
		}
		color[i] = black
		return nil
	}
	for i := range p.Individuals {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pedigree) buildFamilies() {
	type pair struct{ sire, dam int }
	index := make(map[pair]int)
	for _, ind := range p.Individuals {
		if ind.IsFounder() {
			continue
		}
		key := pair{ind.Sire, ind.Dam}
		f, ok := index[key]
		if !ok {
			f = len(p.Families)
			index[key] = f
			p.Families = append(p.Families, &Family{Index: f, Sire: ind.Sire, Dam: ind.Dam, Component: None})
			sire, dam := p.Individuals[ind.Sire], p.Individuals[ind.Dam]
			sire.Families = append(sire.Families, f)
			dam.Families = append(dam.Families, f)
		}
		p.Families[f].Kids = append(p.Families[f].Kids, ind.Index)
		ind.Family = f
	}
}

// labelComponents assigns components by breadth-first search over
// parent/offspring and mate links, in order of lowest member index.
func (p *Pedigree) labelComponents() {
	for start, ind := range p.Individuals {
		if ind.Component != None {
			continue
		}
		c := &Component{Index: len(p.Components)}
		p.Components = append(p.Components, c)
		ind.Component = c.Index
		queue := []int{start}
		for len(queue) > 0 {
			cur := p.Individuals[queue[0]]
			queue = queue[1:]
			c.Members = append(c.Members, cur.Index)
			for _, n := range p.neighbours(cur) {
				if p.Individuals[n].Component == None {
					p.Individuals[n].Component = c.Index
					queue = append(queue, n)
				}
			}
		}
		slices.Sort(c.Members)
	}
	for _, f := range p.Families {
		f.Component = p.Individuals[f.Sire].Component
		c := p.Components[f.Component]
		c.Families = append(c.Families, f.Index)
	}
}

func (p *Pedigree) neighbours(ind *Individual) []int {
	var out []int
	if ind.Family != None {
		out = append(out, p.Families[ind.Family].Members()...)
	}
	for _, f := range ind.Families {
		out = append(out, p.Families[f].Members()...)
	}
	return out
}
