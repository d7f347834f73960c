package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/genelim/pkg/buildinfo"
	"github.com/matzehuels/genelim/pkg/cache"
	"github.com/matzehuels/genelim/pkg/elim"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/observability"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/prune"
	"github.com/matzehuels/genelim/pkg/recode"
	"github.com/matzehuels/genelim/pkg/store"
)

// Runner executes the pipeline with caching and an optional diagnosis
// store. Both the CLI and the HTTP API use it.
//
// The per-locus flags of a pedigree and the elimination scratch space are
// not safe for concurrent use, so Run holds a lock for its whole duration.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// Store, if set, supplies suspects from earlier diagnoses and records
	// new ones.
	Store store.Store
	// TTL is how long per-locus results stay cached.
	TTL time.Duration

	mu      sync.Mutex
	scratch *elim.Scratch
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		TTL:     TTLLocus,
		scratch: elim.NewScratch(),
	}
}

// TTLLocus is the default cache expiry of per-locus results.
const TTLLocus = 7 * 24 * time.Hour

// run carries the state shared by the loci of one Run.
type run struct {
	id      uuid.UUID
	dataset string
	hash    string
	ped     *pedigree.Pedigree
	opts    *Options
	logger  *log.Logger
}

// Run analyses the selected loci of ds.
//
// A locus that fails elimination stops the run with an INCONSISTENT error
// unless opts.Diagnose is set. With diagnosis a locator failure is recorded
// in [LocusResult.Error] and the run moves on to the next locus. On
// cancellation the loci finished so far are returned with a CANCELLED
// error.
func (r *Runner) Run(ctx context.Context, ds *io.Dataset, opts Options) (*Result, error) {
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	for _, name := range opts.Loci {
		if ds.Locus(name) == nil {
			return nil, gerrors.New(gerrors.ErrCodeNotFound, "locus %s not in dataset", name)
		}
	}

	p, loci, err := ds.Build()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInternal, err, "hash dataset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scratch == nil {
		r.scratch = elim.NewScratch()
	}

	rn := &run{
		id:      uuid.New(),
		dataset: ds.Name,
		hash:    cache.Hash(data),
		ped:     p,
		opts:    &opts,
		logger:  logger,
	}
	res := &Result{RunID: rn.id, Dataset: ds.Name, Hash: rn.hash, ped: p}
	logger.Debug("run started", "run", rn.id, "dataset", ds.Name, "individuals", p.Len(), "loci", len(loci))

	for _, l := range loci {
		if !opts.Selected(l.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, gerrors.Wrap(gerrors.ErrCodeCancelled, err, "run cancelled before locus %s", l.Name)
		}
		lr, cleaned, err := r.locus(ctx, rn, l)
		if lr != nil {
			res.Loci = append(res.Loci, lr)
			res.cleaned = append(res.cleaned, cleaned)
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// locus runs one locus, from the cache when possible. It returns the
// locus with sex-linked deletions and blanked observations applied.
func (r *Runner) locus(ctx context.Context, rn *run, l *pedigree.Locus) (*LocusResult, *pedigree.Locus, error) {
	key := r.Keyer.LocusKey(rn.hash, l.Name, rn.opts.LocusKeyOpts(l.Link))
	if !rn.opts.Refresh {
		if lr := r.cached(ctx, rn, key); lr != nil {
			cleaned := l.Clone()
			for _, d := range lr.Deleted {
				cleaned.Genotypes[d.Individual] = pedigree.Genotype{}
			}
			if lr.Diagnosis != nil {
				lr.Diagnosis.Apply(cleaned)
			}
			rn.logger.Info("locus from cache", "locus", l.Name, "consistent", lr.Consistent)
			return lr, cleaned, nil
		}
	}

	start := time.Now()
	lr := &LocusResult{Locus: l.Name, Link: l.Link, Consistent: true}
	work := l.Clone()
	lr.Deleted = elim.CleanSexLinked(rn.ped, work)
	for _, d := range lr.Deleted {
		rn.logger.Warn("observation deleted", "locus", l.Name, "id", d.ID, "genotype", d.Genotype, "reason", d.Reason)
	}

	comps, err := r.eliminate(ctx, rn, work)
	var ie *elim.InconsistencyError
	if errors.As(err, &ie) {
		lr.Consistent = false
		lr.Inconsistency = newInconsistency(ie)
		family := rn.ped.FamilyString(ie.Family)
		observability.Pipeline().OnInconsistent(ctx, l.Name, family)
		if !rn.opts.Diagnose {
			lr.Duration = time.Since(start)
			return lr, work, gerrors.Wrap(gerrors.ErrCodeInconsistent, err, "family %s", family)
		}
		rn.logger.Warn("inconsistent locus", "locus", l.Name, "family", family)

		diag, lerr := r.diagnose(ctx, rn, work)
		lr.Diagnosis = diag
		if lerr != nil {
			lr.Duration = time.Since(start)
			if ctx.Err() != nil {
				return lr, work, gerrors.Wrap(gerrors.ErrCodeCancelled, lerr, "locate %s", l.Name)
			}
			lr.Error = lerr.Error()
			rn.logger.Error("locus abandoned", "locus", l.Name, "err", lerr)
			return lr, work, nil
		}
		rn.logger.Info("blanked", "locus", l.Name, "individuals", diag.Summary(), "checks", diag.Checks)
		comps, err = r.eliminate(ctx, rn, work)
		if errors.As(err, &ie) {
			err = gerrors.Wrap(gerrors.ErrCodeInternal, err, "locus %s still inconsistent after blanking", l.Name)
		}
	}
	if err != nil {
		lr.Duration = time.Since(start)
		return lr, work, classify(ctx, err, l.Name)
	}

	lr.Components = comps
	lr.Summary = summarize(rn.ped, comps)
	lr.Duration = time.Since(start)
	rn.logger.Info("locus done",
		"locus", l.Name,
		"consistent", lr.Consistent,
		"mean_genotypes", lr.Summary.Mean,
		"ops", lr.Summary.Ops,
		"duration", lr.Duration)

	r.put(ctx, rn, key, lr)
	return lr, work, nil
}

// eliminate runs prune, recode, elimination and compilation on every
// component of a copy of l. The pedigree's per-locus flags are left
// describing l.
func (r *Runner) eliminate(ctx context.Context, rn *run, l *pedigree.Locus) ([]*ComponentResult, error) {
	p := rn.ped
	work := l.Clone()
	p.ResetLocus()
	work.MarkData(p)

	out := make([]*ComponentResult, 0, len(p.Components))
	for _, c := range p.Components {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cr, err := r.component(ctx, rn, c, work, l.Alleles)
		if err != nil {
			return out, err
		}
		out = append(out, cr)
	}
	return out, nil
}

func (r *Runner) component(ctx context.Context, rn *run, c *pedigree.Component, work *pedigree.Locus, alleles []string) (*ComponentResult, error) {
	p, opts := rn.ped, rn.opts
	cr := &ComponentResult{Component: c.Index, Members: len(c.Members)}

	_ = stage(ctx, work.Name, "prune", func() error {
		pr := prune.Component(p, c, opts.PruneOptions())
		cr.Pruned, cr.Inactive = pr.Pruned, pr.Inactive
		return nil
	})

	var tr *recode.Translation
	err := stage(ctx, work.Name, "recode", func() (err error) {
		tr, err = recode.Component(p, c, work, opts.RecodeOptions())
		return err
	})
	if err != nil {
		return nil, err
	}
	cr.Alleles = tr.Labels(alleles)

	var tab *elim.Table
	err = stage(ctx, work.Name, "eliminate", func() error {
		var err error
		tab, err = elim.NewTable(p, c, work, tr.N(), r.scratch)
		if err != nil {
			return err
		}
		res, err := tab.Propagate(prune.ActiveFamilies(p, c))
		cr.Steps = res.Steps
		return err
	})
	if err != nil {
		return nil, err
	}
	tab.Annotate()
	if opts.Report {
		cr.Possible = possibilities(p, c, tab, cr.Alleles)
	}

	err = stage(ctx, work.Name, "peel", func() (err error) {
		cr.Sequence, err = peel.Compile(p, c, tab, opts.PeelOptions())
		return err
	})
	if err != nil {
		return nil, err
	}
	rn.logger.Debug("component done",
		"locus", work.Name,
		"component", c.Index,
		"members", cr.Members,
		"pruned", cr.Pruned,
		"alleles", len(cr.Alleles),
		"steps", cr.Steps,
		"ops", len(cr.Sequence.Ops))
	return cr, nil
}

// diagnose runs the locator on l, blanking observations in place. Suspects
// of an earlier diagnosis are tried first and the outcome is saved.
func (r *Runner) diagnose(ctx context.Context, rn *run, l *pedigree.Locus) (*locate.Result, error) {
	lopts := locate.Options{
		OnProgress: func(pr locate.Progress) {
			observability.Pipeline().OnLocateProgress(ctx, l.Name, pr.Checks, pr.Blanked)
			if rn.opts.OnProgress != nil {
				rn.opts.OnProgress(l.Name, pr)
			}
		},
	}
	if r.Store != nil {
		d, err := r.Store.Load(ctx, rn.dataset, l.Name)
		if err != nil {
			rn.logger.Warn("load diagnosis", "locus", l.Name, "err", err)
		} else if d != nil {
			lopts.Suspects = d.Suspects
			rn.logger.Debug("suspects loaded", "locus", l.Name, "count", len(d.Suspects), "run", d.RunID)
		}
	}

	check := locate.Eliminator(rn.ped, locate.CheckOptions{
		Prune:  rn.opts.PruneOptions(),
		Recode: rn.opts.RecodeOptions(),
	})
	var res *locate.Result
	err := stage(ctx, l.Name, "locate", func() (err error) {
		res, err = locate.Locate(ctx, rn.ped, l, check, lopts)
		return err
	})
	if err != nil {
		return res, err
	}
	if r.Store != nil {
		d := store.NewDiagnosis(rn.id, rn.dataset, res, buildinfo.Short())
		if err := r.Store.Save(ctx, d); err != nil {
			rn.logger.Warn("save diagnosis", "locus", l.Name, "err", err)
		}
	}
	return res, nil
}

// stage runs fn between the start and completion hooks of a stage.
func stage(ctx context.Context, locus, name string, fn func() error) error {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, locus, name)
	start := time.Now()
	err := fn()
	hooks.OnStageComplete(ctx, locus, name, time.Since(start), err)
	return err
}

func (r *Runner) cached(ctx context.Context, rn *run, key string) *LocusResult {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		rn.logger.Warn("cache read failed", "err", err)
		return nil
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "locus")
		return nil
	}
	var lr LocusResult
	if err := json.Unmarshal(data, &lr); err != nil {
		rn.logger.Debug("discarding unreadable cache entry", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, "locus")
		return nil
	}
	observability.Cache().OnCacheHit(ctx, "locus")
	lr.CacheHit = true
	return &lr
}

func (r *Runner) put(ctx context.Context, rn *run, key string, lr *LocusResult) {
	data, err := json.Marshal(lr)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		rn.logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "locus", len(data))
}

// classify attaches an error code to library errors. Errors that already
// carry a code are returned unchanged.
func classify(ctx context.Context, err error, locus string) error {
	if gerrors.GetCode(err) != "" {
		return err
	}
	var ie *peel.InternalError
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return gerrors.Wrap(gerrors.ErrCodeCancelled, err, "locus %s", locus)
	case errors.Is(err, elim.ErrUnknownSex):
		return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "locus %s", locus)
	case errors.As(err, &ie):
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "locus %s: peel compiler", locus)
	case errors.Is(err, elim.ErrAlleleCount):
		return gerrors.Wrap(gerrors.ErrCodeConfiguration, err, "locus %s", locus)
	}
	return gerrors.Wrap(gerrors.ErrCodeInternal, err, "locus %s", locus)
}

// possibilities lists the possible genotypes of the non-pruned members of
// c, labelled with the component's recoded alleles.
func possibilities(p *pedigree.Pedigree, c *pedigree.Component, t *elim.Table, alleles []string) []Possibility {
	label := func(code int) string {
		if code < 1 || code > len(alleles) {
			return "?"
		}
		return alleles[code-1]
	}
	var out []Possibility
	for _, i := range c.Members {
		ind := p.Individuals[i]
		if ind.Flags.Has(pedigree.Pruned) {
			continue
		}
		gs := t.Genotypes(i)
		labels := make([]string, len(gs))
		for k, g := range gs {
			labels[k] = elim.FormatGenotype(g, label)
		}
		out = append(out, Possibility{
			ID:        ind.ID,
			Sex:       ind.Sex.String(),
			Fixed:     ind.Flags.Has(pedigree.Fixed),
			Genotypes: labels,
		})
	}
	return out
}
