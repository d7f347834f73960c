package pipeline

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/genelim/pkg/elim"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
)

// Result is the outcome of [Runner.Run].
type Result struct {
	RunID   uuid.UUID      `json:"run_id"`
	Dataset string         `json:"dataset"`
	Hash    string         `json:"hash"`
	Loci    []*LocusResult `json:"loci"`

	ped     *pedigree.Pedigree
	cleaned []*pedigree.Locus
}

// Pedigree returns the pedigree the run was built from.
func (r *Result) Pedigree() *pedigree.Pedigree { return r.ped }

// Locus returns the result of the named locus, or nil.
func (r *Result) Locus(name string) *LocusResult {
	for _, lr := range r.Loci {
		if lr.Locus == name {
			return lr
		}
	}
	return nil
}

// UpdateDataset writes the cleaned observations of every finished locus,
// with sex-linked deletions and blanked individuals removed, back into ds.
// It returns the number of loci whose observations changed.
func (r *Result) UpdateDataset(ds *io.Dataset) int {
	n := 0
	for k, lr := range r.Loci {
		if len(lr.Deleted) == 0 && (lr.Diagnosis == nil || len(lr.Diagnosis.Blanked) == 0) {
			continue
		}
		if r.cleaned[k] != nil && ds.Update(r.ped, r.cleaned[k]) {
			n++
		}
	}
	return n
}

// Inconsistent returns the loci that needed diagnosis.
func (r *Result) Inconsistent() []*LocusResult {
	var out []*LocusResult
	for _, lr := range r.Loci {
		if !lr.Consistent {
			out = append(out, lr)
		}
	}
	return out
}

// LocusResult is the outcome of one locus.
type LocusResult struct {
	Locus      string            `json:"locus"`
	Link       pedigree.LinkType `json:"link"`
	Consistent bool              `json:"consistent"`

	// Deleted lists observations removed by sex-linked cleanup.
	Deleted []elim.Deletion `json:"deleted,omitempty"`
	// Inconsistency is the first contradiction found, if any.
	Inconsistency *Inconsistency `json:"inconsistency,omitempty"`
	// Diagnosis is set when the locator ran.
	Diagnosis *locate.Result `json:"diagnosis,omitempty"`
	// Error describes why the locus was abandoned after diagnosis.
	Error string `json:"error,omitempty"`

	Components []*ComponentResult `json:"components"`
	Summary    Summary            `json:"summary"`

	CacheHit bool          `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Inconsistency identifies a contradicting family by individual IDs.
type Inconsistency struct {
	Component int      `json:"component"`
	Family    int      `json:"family"`
	Sire      string   `json:"sire"`
	Dam       string   `json:"dam"`
	Kids      []string `json:"kids"`
}

func newInconsistency(e *elim.InconsistencyError) *Inconsistency {
	return &Inconsistency{Component: e.Component, Family: e.Family, Sire: e.Sire, Dam: e.Dam, Kids: e.Kids}
}

// ComponentResult is the outcome of one connected component.
type ComponentResult struct {
	Component int `json:"component"`
	Members   int `json:"members"`
	Pruned    int `json:"pruned"`
	Inactive  int `json:"inactive_families"`
	// Alleles are the original labels of the recoded alleles, with "*" for
	// the lump allele.
	Alleles  []string       `json:"alleles"`
	Steps    int            `json:"steps"`
	Sequence *peel.Sequence `json:"sequence,omitempty"`
	// Possible lists the possible genotypes per individual when a report
	// was requested.
	Possible []Possibility `json:"possible,omitempty"`
}

// Possibility lists the genotypes an individual may carry.
type Possibility struct {
	ID        string   `json:"id"`
	Sex       string   `json:"sex"`
	Fixed     bool     `json:"fixed"`
	Genotypes []string `json:"genotypes"`
}

// Summary describes the genotype-set sizes of non-pruned individuals after
// elimination.
type Summary struct {
	Individuals int     `json:"individuals"`
	Fixed       int     `json:"fixed"`
	Mean        float64 `json:"mean_genotypes"`
	StdDev      float64 `json:"stddev_genotypes"`
	Max         int     `json:"max_genotypes"`
	Ops         int     `json:"ops"`
	Complex     int     `json:"complex_ops"`
	MaxInvolved int     `json:"max_involved"`
}

// summarize fills the genotype statistics from the per-individual Stats of
// p, which must be annotated for the locus.
func summarize(p *pedigree.Pedigree, comps []*ComponentResult) Summary {
	var s Summary
	var counts []float64
	for _, ind := range p.Individuals {
		if ind.Flags.Has(pedigree.Pruned) || ind.Stats.Genotypes == 0 {
			continue
		}
		counts = append(counts, float64(ind.Stats.Genotypes))
		s.Max = max(s.Max, ind.Stats.Genotypes)
		if ind.Flags.Has(pedigree.Fixed) {
			s.Fixed++
		}
	}
	s.Individuals = len(counts)
	switch len(counts) {
	case 0:
	case 1:
		s.Mean = counts[0]
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(counts, nil)
	}
	for _, c := range comps {
		if c.Sequence == nil {
			continue
		}
		nSimple, nComplex := c.Sequence.Counts()
		s.Ops += nSimple + nComplex
		s.Complex += nComplex
		s.MaxInvolved = max(s.MaxInvolved, c.Sequence.MaxInvolved())
	}
	return s
}
