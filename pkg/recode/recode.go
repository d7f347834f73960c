// Package recode compacts the allele alphabet of a locus per component.
//
// Only alleles observed among the non-pruned members of a component can be
// told apart by the data; all others behave identically and are collapsed
// into one catch-all ("lump") allele standing for any unseen population
// allele. The dense codes keep genotype-set bitsets as narrow as possible.
package recode

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/genelim/pkg/alleleset"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Lump is the display label of the catch-all allele.
const Lump = "*"

// ErrTooManyAlleles is returned when the recoded alphabet does not fit in a
// genotype-set word.
var ErrTooManyAlleles = errors.New("too many alleles for genotype-set width")

// Options controls recoding.
type Options struct {
	// Disabled keeps the original alphabet (plus the lump allele when
	// ExtraAllele is set).
	Disabled bool
	// ExtraAllele reserves one synthetic allele for unobserved alleles.
	ExtraAllele bool
	// Width is the maximum number of alleles after recoding; 0 means
	// alleleset.MaxAlleles.
	Width int
}

// Translation maps between original and recoded allele codes of one component.
type Translation struct {
	// Old[j] is the original code of recoded code j+1, or -1 for the lump allele.
	Old []int `json:"old"`
	// New[c] is the recoded code of original code c; New[0] is 0.
	New []int `json:"new"`
}

// N returns the number of recoded alleles.
func (t *Translation) N() int { return len(t.Old) }

// IsIdentity reports whether every non-lump code maps to itself.
func (t *Translation) IsIdentity() bool {
	for j, old := range t.Old {
		if old != -1 && old != j+1 {
			return false
		}
	}
	return true
}

// Label returns the original label of recoded code c (1-based).
func (t *Translation) Label(alleles []string, c int) string {
	if c < 1 || c > len(t.Old) {
		return "?"
	}
	old := t.Old[c-1]
	if old == -1 || old > len(alleles) {
		return Lump
	}
	return alleles[old-1]
}

// Labels returns the label of every recoded allele in code order.
func (t *Translation) Labels(alleles []string) []string {
	out := make([]string, len(t.Old))
	for j := range t.Old {
		out[j] = t.Label(alleles, j+1)
	}
	return out
}

// Component computes the translation for component c of locus l and rewrites
// the genotypes of c's members in place.
func Component(p *pedigree.Pedigree, c *pedigree.Component, l *pedigree.Locus, opts Options) (*Translation, error) {
	width := opts.Width
	if width <= 0 || width > alleleset.MaxAlleles {
		width = alleleset.MaxAlleles
	}
	levels := len(l.Alleles)
	n := levels
	if opts.ExtraAllele {
		n++
	}

	var used []int
	if !opts.Disabled {
		seen := make(map[int]bool)
		for _, i := range c.Members {
			if p.Individuals[i].Flags.Has(pedigree.Pruned) {
				continue
			}
			for _, a := range l.Genotype(i) {
				if a != 0 && !seen[a] {
					seen[a] = true
					used = append(used, a)
				}
			}
		}
		slices.Sort(used)
	}

	t := &Translation{New: make([]int, levels+1)}
	if nUsed := len(used) + 1; !opts.Disabled && nUsed < n {
		t.Old = append(used, -1)
	} else {
		for a := 1; a <= levels; a++ {
			t.Old = append(t.Old, a)
		}
		if opts.ExtraAllele {
			t.Old = append(t.Old, -1)
		}
	}
	if len(t.Old) == 0 {
		t.Old = []int{-1}
	}
	if len(t.Old) > width {
		return nil, gerrors.Wrap(gerrors.ErrCodeConfiguration, ErrTooManyAlleles,
			"locus %s, component %d: %d alleles exceed width %d", l.Name, c.Index, len(t.Old), width)
	}

	lump := 0
	if last := t.Old[len(t.Old)-1]; last == -1 {
		lump = len(t.Old)
	}
	for a := 1; a <= levels; a++ {
		t.New[a] = lump
	}
	for j, old := range t.Old {
		if old != -1 {
			t.New[old] = j + 1
		}
	}

	for _, i := range c.Members {
		g := l.Genotype(i)
		if g.Observed() == 0 {
			continue
		}
		for k, a := range g {
			if a != 0 {
				g[k] = t.New[a]
			}
		}
		l.Genotypes[i] = g
	}
	return t, nil
}

// String formats the translation as "new->old" pairs.
func (t *Translation) String() string {
	s := ""
	for j, old := range t.Old {
		if j > 0 {
			s += " "
		}
		if old == -1 {
			s += fmt.Sprintf("%d->%s", j+1, Lump)
		} else {
			s += fmt.Sprintf("%d->%d", j+1, old)
		}
	}
	return s
}
