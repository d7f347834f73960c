package nodelink

import (
	"fmt"
	"strings"

	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

// maxListed is the number of possible genotypes spelled out in a label;
// longer lists are replaced by their count.
const maxListed = 3

// LocusOptions draws the outcome of one locus: blanked individuals, the
// inconsistent and implicated families, and, when the result carries a
// genotype report, pruned and fixed individuals with their possible
// genotypes. Without a report the observed genotypes are shown.
func LocusOptions(p *pedigree.Pedigree, lr *pipeline.LocusResult, observed map[string]string) Options {
	opts := Options{
		Title:  fmt.Sprintf("%s (%s)", lr.Locus, lr.Link),
		Labels: make(map[string]string),
	}
	for id, g := range observed {
		opts.Labels[id] = g
	}
	if lr.Inconsistency != nil {
		opts.Inconsistent = append(opts.Inconsistent, lr.Inconsistency.Family)
	}
	if d := lr.Diagnosis; d != nil {
		for _, b := range d.Blanked {
			opts.Blanked = append(opts.Blanked, b.ID)
		}
		for _, f := range d.Families {
			if lr.Inconsistency == nil || f != lr.Inconsistency.Family {
				opts.Inconsistent = append(opts.Inconsistent, f)
			}
		}
	}

	reported := make(map[string]bool)
	for _, c := range lr.Components {
		for _, ps := range c.Possible {
			reported[ps.ID] = true
			if ps.Fixed {
				opts.Fixed = append(opts.Fixed, ps.ID)
			}
			label := strings.Join(ps.Genotypes, " ")
			if len(ps.Genotypes) > maxListed {
				label = fmt.Sprintf("%d genotypes", len(ps.Genotypes))
			}
			opts.Labels[ps.ID] = label
		}
	}
	if len(reported) > 0 {
		for _, ind := range p.Individuals {
			if !reported[ind.ID] {
				opts.Pruned = append(opts.Pruned, ind.ID)
			}
		}
	}
	return opts
}
