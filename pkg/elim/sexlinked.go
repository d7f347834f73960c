package elim

import "github.com/matzehuels/genelim/pkg/pedigree"

// Deletion records an observation removed because the locus cannot carry it.
type Deletion struct {
	Individual int               `json:"individual"`
	ID         string            `json:"id"`
	Genotype   pedigree.Genotype `json:"genotype"`
	Reason     string            `json:"reason"`
}

// CleanSexLinked clears observations that a sex-linked locus cannot produce:
// any Y-linked data on females and heterozygous genotypes on males. The
// genotypes of l are modified in place. Autosomal loci are left untouched.
func CleanSexLinked(p *pedigree.Pedigree, l *pedigree.Locus) []Deletion {
	if !l.Link.SexLinked() {
		return nil
	}
	var out []Deletion
	for i, ind := range p.Individuals {
		g := l.Genotype(i)
		if g.Observed() == 0 {
			continue
		}
		reason := ""
		switch {
		case l.Link == pedigree.LinkY && ind.Sex == pedigree.SexFemale:
			reason = "female with Y-linked data"
		case ind.Sex == pedigree.SexMale && g[1] != 0 && g[0] != g[1]:
			reason = "heterozygous male at " + l.Link.String() + "-linked locus"
		}
		if reason == "" {
			continue
		}
		out = append(out, Deletion{Individual: i, ID: ind.ID, Genotype: g, Reason: reason})
		l.Genotypes[i] = pedigree.Genotype{}
	}
	return out
}
