package elim

import (
	"errors"
	"fmt"

	"github.com/matzehuels/genelim/pkg/alleleset"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

var (
	// ErrUnknownSex is returned by [NewTable] for a non-pruned individual of
	// unknown sex on a sex-linked locus.
	ErrUnknownSex = errors.New("unknown sex on sex-linked locus")

	// ErrAlleleCount is returned by [NewTable] when the allele count is
	// outside [1, alleleset.MaxAlleles] or a genotype code exceeds it.
	ErrAlleleCount = errors.New("allele count out of range")
)

// Table holds the genotype sets of one component for one locus.
type Table struct {
	N         int
	Link      pedigree.LinkType
	Locus     string
	Component int

	ped     *pedigree.Pedigree
	members []int
	pos     []int
	rows    []alleleset.Set
	s       *Scratch
}

// NewTable initialises the genotype sets of component c from the recoded
// genotypes of l, which use codes 1..n.
func NewTable(p *pedigree.Pedigree, c *pedigree.Component, l *pedigree.Locus, n int, s *Scratch) (*Table, error) {
	if n < 1 || n > alleleset.MaxAlleles {
		return nil, fmt.Errorf("%w: %d", ErrAlleleCount, n)
	}
	if s == nil {
		s = NewScratch()
	}
	s.pos = growInts(s.pos, p.Len())
	for i := range s.pos {
		s.pos[i] = -1
	}
	for k, i := range c.Members {
		s.pos[i] = k
	}
	s.rows = growSets(s.rows, len(c.Members)*n)

	t := &Table{
		N:         n,
		Link:      l.Link,
		Locus:     l.Name,
		Component: c.Index,
		ped:       p,
		members:   c.Members,
		pos:       s.pos,
		rows:      s.rows,
		s:         s,
	}
	for _, i := range c.Members {
		ind := p.Individuals[i]
		if l.Link.SexLinked() && ind.Sex == pedigree.SexUnknown && !ind.Flags.Has(pedigree.Pruned) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSex, ind.ID)
		}
		g := l.Genotype(i)
		if g[0] > n || g[1] > n {
			return nil, fmt.Errorf("%w: individual %s has code %v with %d alleles", ErrAlleleCount, ind.ID, g, n)
		}
		initRows(t.Rows(i), g, ind.Sex, l.Link, n)
	}
	return t, nil
}

// initRows sets the genotype sets of one individual from its observation.
func initRows(rows []alleleset.Set, g pedigree.Genotype, sex pedigree.Sex, link pedigree.LinkType, n int) {
	full := alleleset.Full(n)
	clear(rows)
	c0, c1 := g[0], g[1]

	switch {
	case link == pedigree.LinkY:
		if sex != pedigree.SexMale {
			return
		}
		if c0 != 0 {
			rows[0] = alleleset.Bit(c0 - 1)
		} else {
			rows[0] = full
		}

	case link == pedigree.LinkX && sex == pedigree.SexMale:
		if c0 != 0 {
			rows[c0-1] = alleleset.Bit(0)
			return
		}
		for a := range rows {
			rows[a] = alleleset.Bit(0)
		}

	case c0 != 0 && c1 != 0:
		rows[c0-1] = alleleset.Bit(c1 - 1)
		rows[c1-1] = alleleset.Bit(c0 - 1)

	case c0 != 0:
		for a := range rows {
			rows[a] = alleleset.Bit(c0 - 1)
		}
		rows[c0-1] = full

	default:
		for a := range rows {
			rows[a] = full
		}
	}
}

// Has reports whether individual i is a member of the table's component.
func (t *Table) Has(i int) bool { return i >= 0 && i < len(t.pos) && t.pos[i] >= 0 }

// Members returns the component members in ascending order.
func (t *Table) Members() []int { return t.members }

// Rows returns the genotype sets of individual i. Row a holds the paternal
// alleles possible together with maternal allele a. The slice aliases the
// table.
func (t *Table) Rows(i int) []alleleset.Set {
	k := t.pos[i] * t.N
	return t.rows[k : k+t.N : k+t.N]
}

// Possible reports whether the ordered genotype (mat, pat) is still possible
// for individual i. Alleles are 0-based.
func (t *Table) Possible(i, mat, pat int) bool { return t.Rows(i)[mat].Has(pat) }

// Maternal returns the set of maternal alleles individual i may carry.
func (t *Table) Maternal(i int) alleleset.Set {
	var s alleleset.Set
	for a, r := range t.Rows(i) {
		if !r.IsEmpty() {
			s = s.Add(a)
		}
	}
	return s
}

// Paternal returns the set of paternal alleles individual i may carry.
func (t *Table) Paternal(i int) alleleset.Set {
	var s alleleset.Set
	for _, r := range t.Rows(i) {
		s |= r
	}
	return s
}

// Count returns the number of possible ordered genotypes of individual i.
func (t *Table) Count(i int) int {
	n := 0
	for _, r := range t.Rows(i) {
		n += r.Len()
	}
	return n
}

// Carrier reports whether individual i carries at least one copy of the locus.
// Females carry no Y-linked copy.
func (t *Table) Carrier(i int) bool {
	return t.Link != pedigree.LinkY || t.ped.Individuals[i].Sex == pedigree.SexMale
}

// Empty reports whether a carrier has no possible genotype left.
func (t *Table) Empty(i int) bool {
	if !t.Carrier(i) {
		return false
	}
	for _, r := range t.Rows(i) {
		if !r.IsEmpty() {
			return false
		}
	}
	return true
}

// Stats summarises the possibilities of individual i.
func (t *Table) Stats(i int) pedigree.Stats {
	st := pedigree.Stats{Genotypes: t.Count(i)}
	if t.Carrier(i) {
		st.Maternal = t.Maternal(i).Len()
		st.Paternal = t.Paternal(i).Len()
	}
	return st
}

// Clone returns a copy of the table that does not alias the scratch buffers.
func (t *Table) Clone() *Table {
	c := *t
	c.rows = append([]alleleset.Set(nil), t.rows...)
	c.pos = append([]int(nil), t.pos...)
	c.s = nil
	return &c
}

// Equal reports whether two tables hold identical genotype sets.
func (t *Table) Equal(o *Table) bool {
	if t.N != o.N || len(t.members) != len(o.members) {
		return false
	}
	for _, i := range t.members {
		if !o.Has(i) {
			return false
		}
		a, b := t.Rows(i), o.Rows(i)
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	return true
}

// SubsetOf reports whether every genotype set of t is contained in o.
func (t *Table) SubsetOf(o *Table) bool {
	for _, i := range t.members {
		if !o.Has(i) {
			return false
		}
		a, b := t.Rows(i), o.Rows(i)
		for k := range a {
			if !a[k].SubsetOf(b[k]) {
				return false
			}
		}
	}
	return true
}

// Annotate stores the statistics of every non-pruned member and flags
// carriers with a single possible ordered genotype as Fixed.
func (t *Table) Annotate() {
	for _, i := range t.members {
		ind := t.ped.Individuals[i]
		ind.Flags &^= pedigree.Fixed
		if ind.Flags.Has(pedigree.Pruned) {
			continue
		}
		ind.Stats = t.Stats(i)
		if t.Carrier(i) && t.Count(i) == 1 {
			ind.Flags |= pedigree.Fixed
		}
	}
}
