package pedigree

import (
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
)

// ErrAlleleCode is returned by [Locus.Validate] for a genotype code outside
// the locus alphabet.
var ErrAlleleCode = errors.New("allele code out of range")

// LinkType describes how a locus is transmitted.
type LinkType int

const (
	// LinkAutosomal loci are transmitted by both parents to all offspring.
	LinkAutosomal LinkType = iota
	// LinkX loci are transmitted by the dam to all offspring and by the sire
	// to daughters only. Males carry a single maternal copy.
	LinkX
	// LinkY loci are transmitted by the sire to sons only. Only males carry a copy.
	LinkY
)

// String returns "auto", "x" or "y".
func (l LinkType) String() string {
	switch l {
	case LinkX:
		return "x"
	case LinkY:
		return "y"
	}
	return "auto"
}

// SexLinked reports whether the locus is on a sex chromosome.
func (l LinkType) SexLinked() bool { return l != LinkAutosomal }

// ParseLinkType parses "auto", "autosomal", "x" or "y" (case-insensitive).
func ParseLinkType(s string) (LinkType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "autosomal":
		return LinkAutosomal, nil
	case "x", "x-linked":
		return LinkX, nil
	case "y", "y-linked":
		return LinkY, nil
	}
	return LinkAutosomal, gerrors.New(gerrors.ErrCodeInvalidLocus, "unknown linkage type %q", s)
}

// MarshalText encodes the linkage type by name.
func (l LinkType) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText decodes a linkage type name.
func (l *LinkType) UnmarshalText(b []byte) error {
	v, err := ParseLinkType(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Genotype is an observed pair of 1-based allele codes; 0 is unobserved.
type Genotype [2]int

// Observed returns how many of the two alleles are known.
func (g Genotype) Observed() int {
	n := 0
	for _, a := range g {
		if a != 0 {
			n++
		}
	}
	return n
}

// Normalize moves a lone known allele into the first slot.
func (g Genotype) Normalize() Genotype {
	if g[0] == 0 && g[1] != 0 {
		return Genotype{g[1], 0}
	}
	return g
}

// String formats the genotype as "a/b" with "0" for unobserved.
func (g Genotype) String() string { return fmt.Sprintf("%d/%d", g[0], g[1]) }

// Locus holds the observations of one marker.
type Locus struct {
	Name      string
	Link      LinkType
	Alleles   []string   // labels of codes 1..len(Alleles)
	Genotypes []Genotype // one per individual, in pedigree order
}

// Genotype returns the normalised observation of individual i.
func (l *Locus) Genotype(i int) Genotype {
	if i < 0 || i >= len(l.Genotypes) {
		return Genotype{}
	}
	return l.Genotypes[i].Normalize()
}

// Clone returns a deep copy of the locus.
func (l *Locus) Clone() *Locus {
	c := *l
	c.Alleles = append([]string(nil), l.Alleles...)
	c.Genotypes = append([]Genotype(nil), l.Genotypes...)
	return &c
}

// Validate checks that the locus matches the pedigree and that every code is
// within the alphabet.
func (l *Locus) Validate(p *Pedigree) error {
	if err := gerrors.ValidateLocusName(l.Name); err != nil {
		return err
	}
	if len(l.Genotypes) != p.Len() {
		return gerrors.New(gerrors.ErrCodeInvalidLocus,
			"locus %s has %d genotypes for %d individuals", l.Name, len(l.Genotypes), p.Len())
	}
	for i, g := range l.Genotypes {
		for _, a := range g {
			if a < 0 || a > len(l.Alleles) {
				return gerrors.Wrap(gerrors.ErrCodeInvalidLocus, ErrAlleleCode,
					"locus %s, individual %s: code %d", l.Name, p.ID(i), a)
			}
		}
	}
	return nil
}

// MarkData sets HasData and HasGenotype on every individual with observations.
func (l *Locus) MarkData(p *Pedigree) {
	for i, ind := range p.Individuals {
		g := l.Genotype(i)
		switch g.Observed() {
		case 2:
			ind.Flags |= HasData | HasGenotype
		case 1:
			ind.Flags |= HasData
		}
	}
}
