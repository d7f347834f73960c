// Package pipeline runs the per-locus analysis used by the CLI and the HTTP
// API.
//
// For every selected locus of a dataset the [Runner] cleans sex-linked
// data, prunes, recodes and eliminates each component, and compiles a peel
// sequence. When elimination finds a Mendelian contradiction the run either
// stops with an INCONSISTENT error or, with [Options.Diagnose], hands the
// locus to the inconsistency locator and continues with the cleaned data.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Run(ctx, dataset, pipeline.Options{Diagnose: true})
//	if err != nil {
//	    return err
//	}
//	for _, lr := range res.Loci {
//	    fmt.Println(lr.Locus, lr.Consistent)
//	}
//
// Loci are processed one at a time; a Runner may be shared between
// goroutines but serialises their runs.
package pipeline

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genelim/pkg/cache"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/prune"
	"github.com/matzehuels/genelim/pkg/recode"
)

// Default limits, shared by the CLI, the config file and the HTTP API.
const (
	DefaultWordBits    = peel.DefaultWordBits
	DefaultMaxInvolved = peel.DefaultMaxInvolved
)

// Options configure a run. The zero value runs every stage with the
// defaults; the Skip* switches turn stages off.
type Options struct {
	// Loci restricts the run to the named loci; empty means all.
	Loci []string `json:"loci,omitempty" toml:"loci"`

	SkipPrune       bool `json:"skip_prune,omitempty" toml:"skip_prune"`
	SkipRecode      bool `json:"skip_recode,omitempty" toml:"skip_recode"`
	SkipExtraAllele bool `json:"skip_extra_allele,omitempty" toml:"skip_extra_allele"`
	SkipPrimary     bool `json:"skip_primary,omitempty" toml:"skip_primary"`
	NoBothParents   bool `json:"no_both_parents,omitempty" toml:"no_both_parents"`

	WordBits    int `json:"word_bits,omitempty" toml:"word_bits"`
	MaxInvolved int `json:"max_involved,omitempty" toml:"max_involved"`

	// Diagnose runs the inconsistency locator instead of failing.
	Diagnose bool `json:"diagnose,omitempty" toml:"diagnose"`
	// Report adds the possible genotypes of every individual.
	Report bool `json:"report,omitempty" toml:"report"`
	// Refresh ignores cached results.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// OnProgress receives locator progress of the locus being diagnosed.
	OnProgress func(locus string, p locate.Progress) `json:"-" toml:"-"`
	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-" toml:"-"`
}

// ValidateAndSetDefaults checks limits and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.WordBits == 0 {
		o.WordBits = DefaultWordBits
	}
	if o.WordBits < 2 || o.WordBits > 64 {
		return gerrors.New(gerrors.ErrCodeConfiguration, "word_bits must be in [2, 64], got %d", o.WordBits)
	}
	if o.MaxInvolved == 0 {
		o.MaxInvolved = DefaultMaxInvolved
	}
	if o.MaxInvolved < 1 {
		return gerrors.New(gerrors.ErrCodeConfiguration, "max_involved must be positive, got %d", o.MaxInvolved)
	}
	for _, name := range o.Loci {
		if err := gerrors.ValidateLocusName(name); err != nil {
			return err
		}
	}
	return nil
}

// Selected reports whether locus name is part of the run.
func (o *Options) Selected(name string) bool {
	return len(o.Loci) == 0 || slices.Contains(o.Loci, name)
}

// PruneOptions returns the pruning options of a run.
func (o *Options) PruneOptions() prune.Options {
	return prune.Options{Uninformative: !o.SkipPrune}
}

// RecodeOptions returns the recoding options of a run.
func (o *Options) RecodeOptions() recode.Options {
	return recode.Options{Disabled: o.SkipRecode, ExtraAllele: !o.SkipExtraAllele, Width: o.WordBits}
}

// PeelOptions returns the compiler options of a run.
func (o *Options) PeelOptions() peel.Options {
	return peel.Options{
		SkipPrimary:   o.SkipPrimary,
		NoBothParents: o.NoBothParents,
		WordBits:      o.WordBits,
		MaxInvolved:   o.MaxInvolved,
	}
}

// LocusKeyOpts returns the cache key options of a locus.
func (o *Options) LocusKeyOpts(link pedigree.LinkType) cache.LocusKeyOpts {
	return cache.LocusKeyOpts{
		Link:             link.String(),
		Prune:            !o.SkipPrune,
		Recode:           !o.SkipRecode,
		ExtraAllele:      !o.SkipExtraAllele,
		PrimaryPeel:      !o.SkipPrimary,
		PivotBothParents: !o.NoBothParents,
		WordBits:         o.WordBits,
		MaxInvolved:      o.MaxInvolved,
		Diagnose:         o.Diagnose,
		Report:           o.Report,
	}
}
