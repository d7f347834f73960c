package peel

import (
	"cmp"
	"fmt"

	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Copy selects one of the two parental copies of a locus.
type Copy uint8

const (
	Maternal Copy = iota
	Paternal
)

// String returns "m" or "p".
func (c Copy) String() string {
	if c == Paternal {
		return "p"
	}
	return "m"
}

// Gene is one parental copy of the locus in one individual. Genes are
// ordered by individual index, maternal before paternal.
type Gene struct {
	Individual int  `json:"individual"`
	Copy       Copy `json:"copy"`
}

// Other returns the other copy of the same individual.
func (g Gene) Other() Gene { return Gene{Individual: g.Individual, Copy: 1 - g.Copy} }

// Compare orders genes by individual, then copy.
func (g Gene) Compare(o Gene) int {
	if c := cmp.Compare(g.Individual, o.Individual); c != 0 {
		return c
	}
	return cmp.Compare(g.Copy, o.Copy)
}

// Less reports whether g sorts before o.
func (g Gene) Less(o Gene) bool { return g.Compare(o) < 0 }

// String formats the gene by individual index, e.g. "12p".
func (g Gene) String() string { return fmt.Sprintf("%d%s", g.Individual, g.Copy) }

// Label formats the gene with the individual's identifier, e.g. "A7:p".
func (g Gene) Label(p *pedigree.Pedigree) string {
	return p.ID(g.Individual) + ":" + g.Copy.String()
}

// Genes returns the copies an individual carries for the given linkage:
// one for hemizygous males, none for females on a Y-linked locus.
func Genes(ind *pedigree.Individual, link pedigree.LinkType) []Gene {
	i := ind.Index
	switch {
	case link == pedigree.LinkY:
		if ind.Sex != pedigree.SexMale {
			return nil
		}
		return []Gene{{i, Paternal}}
	case link == pedigree.LinkX && ind.Sex == pedigree.SexMale:
		return []Gene{{i, Maternal}}
	}
	return []Gene{{i, Maternal}, {i, Paternal}}
}

func indexOf(gs []Gene, g Gene) int {
	for k, x := range gs {
		if x == g {
			return k
		}
	}
	return -1
}

func containsAll(set, sub []Gene) bool {
	for _, g := range sub {
		if indexOf(set, g) < 0 {
			return false
		}
	}
	return true
}
