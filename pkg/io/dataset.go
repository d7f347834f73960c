package io

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Dataset is the on-disk form of a pedigree with its loci.
type Dataset struct {
	Name     string            `json:"name,omitempty" toml:"name"`
	Pedigree []pedigree.Record `json:"pedigree" toml:"pedigree"`
	Loci     []Locus           `json:"loci" toml:"loci"`
}

// Locus is the on-disk form of one marker.
type Locus struct {
	Name      string            `json:"name" toml:"name"`
	Link      pedigree.LinkType `json:"link,omitempty" toml:"link"`
	Alleles   []string          `json:"alleles,omitempty" toml:"alleles"`
	Genotypes map[string]string `json:"genotypes" toml:"genotypes"`
}

// Build validates the dataset and returns the pedigree and its loci.
func (d *Dataset) Build() (*pedigree.Pedigree, []*pedigree.Locus, error) {
	for _, r := range d.Pedigree {
		if err := gerrors.ValidateIdentifier(r.ID); err != nil {
			return nil, nil, err
		}
	}
	p, err := pedigree.New(d.Pedigree)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool, len(d.Loci))
	loci := make([]*pedigree.Locus, 0, len(d.Loci))
	for k := range d.Loci {
		l, err := d.Loci[k].Build(p)
		if err != nil {
			return nil, nil, err
		}
		if seen[l.Name] {
			return nil, nil, gerrors.New(gerrors.ErrCodeInvalidLocus, "duplicate locus %s", l.Name)
		}
		seen[l.Name] = true
		loci = append(loci, l)
	}
	return p, loci, nil
}

// Build resolves identifiers and allele labels against p.
func (dl *Locus) Build(p *pedigree.Pedigree) (*pedigree.Locus, error) {
	if err := gerrors.ValidateLocusName(dl.Name); err != nil {
		return nil, err
	}
	alleles := dl.Alleles
	if len(alleles) == 0 {
		alleles = dl.labels()
	}
	code := make(map[string]int, len(alleles))
	for k, a := range alleles {
		if missing(a) {
			return nil, gerrors.New(gerrors.ErrCodeInvalidLocus, "locus %s: %q cannot be an allele label", dl.Name, a)
		}
		if _, dup := code[a]; dup {
			return nil, gerrors.New(gerrors.ErrCodeInvalidLocus, "locus %s: duplicate allele %q", dl.Name, a)
		}
		code[a] = k + 1
	}

	l := &pedigree.Locus{
		Name:      dl.Name,
		Link:      dl.Link,
		Alleles:   slices.Clone(alleles),
		Genotypes: make([]pedigree.Genotype, p.Len()),
	}
	for id, s := range dl.Genotypes {
		i, ok := p.Lookup(id)
		if !ok {
			return nil, gerrors.New(gerrors.ErrCodeInvalidLocus, "locus %s: unknown individual %q", dl.Name, id)
		}
		var g pedigree.Genotype
		for k, a := range splitGenotype(s) {
			if missing(a) {
				continue
			}
			c, ok := code[a]
			if !ok {
				return nil, gerrors.New(gerrors.ErrCodeInvalidLocus, "locus %s, individual %s: unknown allele %q", dl.Name, id, a)
			}
			g[k] = c
		}
		l.Genotypes[i] = g
	}
	if err := l.Validate(p); err != nil {
		return nil, err
	}
	return l, nil
}

// Update replaces the genotypes of the named locus with those of l. It is
// used to write back a dataset after inconsistent observations were
// blanked.
func (d *Dataset) Update(p *pedigree.Pedigree, l *pedigree.Locus) bool {
	for k := range d.Loci {
		dl := &d.Loci[k]
		if dl.Name != l.Name {
			continue
		}
		dl.Alleles = slices.Clone(l.Alleles)
		dl.Genotypes = make(map[string]string)
		for i := range p.Individuals {
			g := l.Genotype(i)
			if g.Observed() == 0 {
				continue
			}
			dl.Genotypes[p.ID(i)] = formatGenotype(l.Alleles, g)
		}
		return true
	}
	return false
}

// Locus returns the named locus, or nil.
func (d *Dataset) Locus(name string) *Locus {
	for k := range d.Loci {
		if d.Loci[k].Name == name {
			return &d.Loci[k]
		}
	}
	return nil
}

func (dl *Locus) labels() []string {
	set := make(map[string]bool)
	for _, s := range dl.Genotypes {
		for _, a := range splitGenotype(s) {
			if !missing(a) {
				set[a] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	numeric := true
	for a := range set {
		out = append(out, a)
		if _, err := strconv.Atoi(a); err != nil {
			numeric = false
		}
	}
	if numeric {
		slices.SortFunc(out, func(a, b string) int {
			x, _ := strconv.Atoi(a)
			y, _ := strconv.Atoi(b)
			return cmp.Compare(x, y)
		})
	} else {
		slices.Sort(out)
	}
	return out
}

func splitGenotype(s string) []string {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	for k := range parts {
		parts[k] = strings.TrimSpace(parts[k])
	}
	return parts
}

func missing(a string) bool { return a == "" || a == "0" || a == "?" }

func formatGenotype(alleles []string, g pedigree.Genotype) string {
	label := func(c int) string {
		if c == 0 {
			return "0"
		}
		return alleles[c-1]
	}
	if g[1] == 0 {
		return label(g[0])
	}
	return label(g[0]) + "/" + label(g[1])
}
