package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/genelim/pkg/pedigree"
)

var (
	// ErrUnresolved is returned when blanking every suspect leaves the
	// locus inconsistent. It indicates a defect in the search, not in the
	// data.
	ErrUnresolved = errors.New("inconsistency could not be resolved")

	// ErrStuck is returned when blanking a family and all of its
	// neighbouring families does not move the inconsistency elsewhere.
	ErrStuck = errors.New("inconsistency persists after blanking neighbouring families")
)

// Suspect names an individual by identifier together with the parents of
// the family it was blanked in, as stored in error files.
type Suspect struct {
	ID   string `json:"id"`
	Sire string `json:"sire"`
	Dam  string `json:"dam"`
}

// Progress is reported after every consistency check.
type Progress struct {
	Pass      int `json:"pass"`
	Checks    int `json:"checks"`
	Families  int `json:"families"`  // families implicated so far
	Remaining int `json:"remaining"` // families left in pass 2
	Blanked   int `json:"blanked"`
}

// Options configure [Locate].
type Options struct {
	// Suspects from an earlier run are blanked first; when that makes the
	// locus consistent no search is done.
	Suspects []Suspect
	// OnProgress, if set, is called after every consistency check.
	OnProgress func(Progress)
}

type locator struct {
	ctx   context.Context
	p     *pedigree.Pedigree
	l     *pedigree.Locus
	check Check
	opts  Options

	orig  []pedigree.Genotype
	typed []bool
	blank []int // family an individual was blanked in, or None
	fams  []int
	prog  Progress
}

// Locate searches for a small set of observations whose removal makes
// locus l consistent. The genotypes of l are modified in place: on return
// every blanked individual has no observation. The original observations
// are kept in [Result.Snapshot].
//
// The search runs in two passes. Pass 1 blanks whole families, starting
// from the first inconsistent one, until the locus is consistent. Pass 2
// walks those families in reverse, restores their members and blanks
// them again one at a time until a single individual per family explains
// the inconsistency, or greedily otherwise.
//
// ctx is checked between checks. When the search stops early, on
// cancellation or with [ErrStuck] or [ErrUnresolved], a partial result is
// returned together with the error; individuals blanked so far stay
// blanked.
func Locate(ctx context.Context, p *pedigree.Pedigree, l *pedigree.Locus, check Check, opts Options) (*Result, error) {
	lc := &locator{
		ctx:   ctx,
		p:     p,
		l:     l,
		check: check,
		opts:  opts,
		orig:  make([]pedigree.Genotype, p.Len()),
		typed: make([]bool, p.Len()),
		blank: make([]int, p.Len()),
	}
	for i := range p.Individuals {
		lc.orig[i] = l.Genotype(i)
		lc.typed[i] = lc.orig[i].Observed() > 0
		lc.blank[i] = pedigree.None
	}

	fam, err := lc.run(All)
	if err != nil {
		return nil, err
	}
	if fam == pedigree.None {
		return lc.result(false), nil
	}

	if len(opts.Suspects) > 0 {
		ok, err := lc.trySuspects()
		if err != nil {
			return nil, err
		}
		if ok {
			res := lc.result(false)
			res.FromSuspects = true
			return res, nil
		}
	}

	if err := lc.pass1(fam); err != nil {
		return lc.partial(err)
	}
	if err := lc.pass2(); err != nil {
		return lc.partial(err)
	}

	fam, err = lc.run(All)
	if err != nil {
		return nil, err
	}
	if fam != pedigree.None {
		return lc.result(true), fmt.Errorf("%w: family %s", ErrUnresolved, p.FamilyString(fam))
	}
	return lc.result(false), nil
}

// partial reports the individuals blanked before a search stopped early.
func (lc *locator) partial(err error) (*Result, error) {
	return lc.result(true), err
}

func (lc *locator) run(c int) (int, error) {
	fam, err := lc.check(lc.l, c)
	lc.prog.Checks++
	if lc.opts.OnProgress != nil {
		lc.prog.Families = len(lc.fams)
		lc.prog.Blanked = lc.nBlanked()
		lc.opts.OnProgress(lc.prog)
	}
	return fam, err
}

// runFrom checks component c first and, when it is consistent, the whole
// pedigree.
func (lc *locator) runFrom(c int) (int, error) {
	fam, err := lc.run(c)
	if err != nil || fam != pedigree.None {
		return fam, err
	}
	return lc.run(All)
}

func (lc *locator) nBlanked() int {
	n := 0
	for _, f := range lc.blank {
		if f != pedigree.None {
			n++
		}
	}
	return n
}

func (lc *locator) setBlank(i, fam int) {
	lc.blank[i] = fam
	lc.l.Genotypes[i] = pedigree.Genotype{}
}

func (lc *locator) restore(i int) {
	lc.blank[i] = pedigree.None
	lc.l.Genotypes[i] = lc.orig[i]
}

func (lc *locator) addFamily(f int) {
	for _, x := range lc.fams {
		if x == f {
			return
		}
	}
	lc.fams = append(lc.fams, f)
}

// blankFamily blanks every typed member of f that is not blanked yet.
func (lc *locator) blankFamily(f int) {
	for _, m := range lc.p.Families[f].Members() {
		if lc.typed[m] && lc.blank[m] == pedigree.None {
			lc.setBlank(m, f)
		}
	}
}

// trySuspects blanks the suspects and reports whether that suffices. On
// failure every suspect is restored.
func (lc *locator) trySuspects() (bool, error) {
	var done []int
	undo := func() {
		for _, i := range done {
			lc.restore(i)
		}
	}
	for _, s := range lc.opts.Suspects {
		i, f, ok := lc.resolve(s)
		if !ok {
			undo()
			return false, nil
		}
		lc.setBlank(i, f)
		done = append(done, i)
	}
	fam, err := lc.run(All)
	if err != nil {
		return false, err
	}
	if fam != pedigree.None {
		undo()
		return false, nil
	}
	for _, i := range done {
		lc.addFamily(lc.blank[i])
	}
	return true, nil
}

// resolve finds the individual and family a suspect refers to. The family
// is the one the individual is an offspring of, or, when the individual is
// one of the named parents, the family it is a parent in.
func (lc *locator) resolve(s Suspect) (int, int, bool) {
	p := lc.p
	i, ok := p.Lookup(s.ID)
	if !ok || !lc.typed[i] {
		return 0, 0, false
	}
	ind := p.Individuals[i]
	match := func(f int) bool {
		fam := p.Families[f]
		return p.ID(fam.Sire) == s.Sire && p.ID(fam.Dam) == s.Dam
	}
	if s.ID == s.Sire || s.ID == s.Dam {
		for _, f := range ind.Families {
			if match(f) {
				return i, f, true
			}
		}
		return 0, 0, false
	}
	if ind.Family == pedigree.None || !match(ind.Family) {
		return 0, 0, false
	}
	return i, ind.Family, true
}

func (lc *locator) pass1(fam int) error {
	lc.prog.Pass = 1
	for fam != pedigree.None {
		if err := lc.ctx.Err(); err != nil {
			return err
		}
		lc.addFamily(fam)
		comp := lc.p.Families[fam].Component
		lc.blankFamily(fam)
		next, err := lc.runFrom(comp)
		if err != nil {
			return err
		}
		if next == fam {
			for _, m := range lc.p.Families[fam].Members() {
				ind := lc.p.Individuals[m]
				if ind.Family != pedigree.None && ind.Family != fam {
					lc.blankFamily(ind.Family)
					lc.addFamily(ind.Family)
				}
				for _, f := range ind.Families {
					if f != fam {
						lc.blankFamily(f)
						lc.addFamily(f)
					}
				}
			}
			if next, err = lc.runFrom(comp); err != nil {
				return err
			}
			if next == fam {
				return fmt.Errorf("%w: family %s", ErrStuck, lc.p.FamilyString(fam))
			}
		}
		fam = next
	}
	return nil
}

func (lc *locator) pass2() error {
	lc.prog.Pass = 2
	for k := len(lc.fams) - 1; k >= 0; k-- {
		if err := lc.ctx.Err(); err != nil {
			return err
		}
		lc.prog.Remaining = k
		f := lc.fams[k]
		comp := lc.p.Families[f].Component
		var list []int
		for _, m := range lc.p.Families[f].Members() {
			if lc.blank[m] == f {
				list = append(list, m)
			}
		}
		if len(list) == 0 {
			continue
		}
		for _, m := range list {
			lc.restore(m)
		}
		bad, err := lc.inconsistent(comp)
		if err != nil {
			return err
		}
		if !bad {
			continue
		}

		fixed := false
		for x := len(list) - 1; x >= 0; x-- {
			lc.setBlank(list[x], f)
			if bad, err = lc.inconsistent(comp); err != nil {
				return err
			}
			if !bad {
				fixed = true
				break
			}
			lc.restore(list[x])
		}
		if fixed {
			continue
		}

		for _, m := range list {
			lc.setBlank(m, f)
		}
		for _, m := range list {
			lc.restore(m)
			if bad, err = lc.inconsistent(comp); err != nil {
				return err
			}
			if bad {
				lc.setBlank(m, f)
			}
		}
	}
	return nil
}

func (lc *locator) inconsistent(comp int) (bool, error) {
	fam, err := lc.run(comp)
	return fam != pedigree.None, err
}

func (lc *locator) result(partial bool) *Result {
	res := &Result{
		Locus:    lc.l.Name,
		Snapshot: lc.orig,
		Families: lc.fams,
		Checks:   lc.prog.Checks,
		Partial:  partial,
	}
	for i, typed := range lc.typed {
		if typed {
			res.Typed++
		}
		f := lc.blank[i]
		if f == pedigree.None {
			continue
		}
		fam := lc.p.Families[f]
		res.Blanked = append(res.Blanked, Blank{
			Individual: i,
			ID:         lc.p.ID(i),
			Family:     f,
			Sire:       lc.p.ID(fam.Sire),
			Dam:        lc.p.ID(fam.Dam),
			Genotype:   lc.orig[i],
		})
	}
	return res
}
