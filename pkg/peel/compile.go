package peel

import (
	"fmt"
	"slices"

	"github.com/matzehuels/genelim/pkg/alleleset"
	"github.com/matzehuels/genelim/pkg/elim"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// Default limits.
const (
	DefaultWordBits    = 64
	DefaultMaxInvolved = 64
)

// Options tune the compiler. The zero value enables both passes with the
// default limits.
type Options struct {
	// SkipPrimary sends every family to the joint pass.
	SkipPrimary bool
	// NoBothParents disables simple peels onto both parents separately.
	NoBothParents bool
	// WordBits bounds bits-per-allele times the number of genes peeled
	// jointly; larger groups are split. Defaults to [DefaultWordBits].
	WordBits int
	// MaxInvolved bounds the genes of one complex operation. Defaults to
	// [DefaultMaxInvolved].
	MaxInvolved int
}

func (o Options) withDefaults() Options {
	if o.WordBits <= 0 || o.WordBits > 64 {
		o.WordBits = DefaultWordBits
	}
	if o.MaxInvolved <= 0 {
		o.MaxInvolved = DefaultMaxInvolved
	}
	return o
}

// family is the part of a pedigree family that transmits the locus.
type family struct {
	index     int
	sire, dam int
	kids      []int
}

type compiler struct {
	p    *pedigree.Pedigree
	c    *pedigree.Component
	t    *elim.Table
	opts Options
	bits int

	fams  []*family
	order map[int]int
	pool  *pool
	seq   *Sequence
}

// Compile builds the peel sequence of component c from its eliminated
// genotype table. Pruning and elimination must have run; the Peeled and
// WasPivot flags of the members are set as a side effect.
func Compile(p *pedigree.Pedigree, c *pedigree.Component, t *elim.Table, opts Options) (*Sequence, error) {
	opts = opts.withDefaults()
	cp := &compiler{
		p:     p,
		c:     c,
		t:     t,
		opts:  opts,
		bits:  alleleset.Width(t.N),
		order: make(map[int]int),
		pool:  newPool(),
		seq: &Sequence{
			Locus:     t.Locus,
			Component: c.Index,
			Link:      t.Link,
			Alleles:   t.N,
		},
	}
	cp.seq.Bits = cp.bits
	for _, i := range c.Members {
		p.Individuals[i].Flags &^= pedigree.Peeled | pedigree.WasPivot
	}

	cp.effectiveFamilies()
	cp.singletons()
	if !opts.SkipPrimary {
		if err := cp.primary(); err != nil {
			return nil, err
		}
	}
	if len(cp.fams) > 0 {
		if err := cp.joint(); err != nil {
			return nil, err
		}
	}
	if len(cp.pool.live) > 0 {
		ids := make([]int, len(cp.pool.live))
		for k, rf := range cp.pool.live {
			ids[k] = rf.ID
		}
		return nil, &InternalError{Phase: "finish", Err: fmt.Errorf("%w: %v", ErrUnusedRFunc, ids)}
	}
	cp.seq.RFuncs = cp.pool.all
	return cp.seq, nil
}

func (cp *compiler) ind(i int) *pedigree.Individual { return cp.p.Individuals[i] }

func (cp *compiler) live(i int) bool {
	return cp.ind(i).Flags&(pedigree.Pruned|pedigree.Singleton) == 0
}

func (cp *compiler) genes(i int) []Gene { return Genes(cp.ind(i), cp.t.Link) }

// effectiveFamilies collects the active families restricted to members that
// carry and transmit the locus, and counts family memberships per
// individual.
func (cp *compiler) effectiveFamilies() {
	link := cp.t.Link
	for _, f := range cp.c.Families {
		fam := cp.p.Families[f]
		if !fam.Active {
			continue
		}
		ef := &family{index: f, sire: fam.Sire, dam: fam.Dam}
		daughters := false
		for _, kid := range fam.Kids {
			if !cp.live(kid) || len(cp.genes(kid)) == 0 {
				continue
			}
			ef.kids = append(ef.kids, kid)
			if cp.ind(kid).Sex != pedigree.SexMale {
				daughters = true
			}
		}
		switch link {
		case pedigree.LinkY:
			ef.dam = pedigree.None
		case pedigree.LinkX:
			if !daughters {
				ef.sire = pedigree.None
			}
		}
		if len(ef.kids) == 0 {
			continue
		}
		for _, m := range ef.members() {
			cp.order[m]++
		}
		cp.fams = append(cp.fams, ef)
	}
}

func (f *family) members() []int {
	out := make([]int, 0, len(f.kids)+2)
	if f.sire != pedigree.None {
		out = append(out, f.sire)
	}
	if f.dam != pedigree.None {
		out = append(out, f.dam)
	}
	return append(out, f.kids...)
}

// singletons emits the leading operation for carriers outside every
// transmitting family: singletons with data and members whose families do
// not transmit the locus to them.
func (cp *compiler) singletons() {
	var kids []int
	for _, i := range cp.c.Members {
		ind := cp.ind(i)
		if ind.Flags.Has(pedigree.Pruned) || len(cp.genes(i)) == 0 {
			continue
		}
		if ind.Flags.Has(pedigree.Singleton) || cp.order[i] == 0 {
			kids = append(kids, i)
		}
	}
	if len(kids) == 0 {
		return
	}
	op := &Simple{
		Family: pedigree.None,
		Sire:   pedigree.None,
		Dam:    pedigree.None,
		Kids:   kids,
		Pivot:  pedigree.None,
	}
	for _, i := range kids {
		op.Peeled = append(op.Peeled, cp.genes(i)...)
		cp.ind(i).Flags |= pedigree.Peeled
	}
	cp.seq.Ops = append(cp.seq.Ops, Op{Kind: KindSimple, Simple: op})
}

// primary repeatedly peels a family that has at most one member still
// linked elsewhere, restarting the scan after every emission.
func (cp *compiler) primary() error {
	for {
		k := slices.IndexFunc(cp.fams, func(f *family) bool {
			_, _, ok := cp.simplePivot(f)
			return ok
		})
		if k < 0 {
			return nil
		}
		f := cp.fams[k]
		cp.fams = slices.Delete(cp.fams, k, k+1)
		if err := cp.emitSimple(f); err != nil {
			return err
		}
	}
}

// simplePivot picks the pivot of a simple peel of f. Every member other
// than the pivot must belong to f alone; for a peel onto both parents the
// offspring must also be fixed.
func (cp *compiler) simplePivot(f *family) (int, PivotKind, bool) {
	pivot, kind := pedigree.None, PivotNone
	if f.sire != pedigree.None && cp.order[f.sire] > 1 {
		pivot, kind = f.sire, PivotSire
	}
	if f.dam != pedigree.None && cp.order[f.dam] > 1 {
		if pivot != pedigree.None {
			kind = PivotParents
		} else {
			pivot, kind = f.dam, PivotDam
		}
	}
	for _, kid := range f.kids {
		if cp.order[kid] <= 1 {
			if kind == PivotParents && cp.t.Count(kid) > 1 {
				return 0, 0, false
			}
			continue
		}
		if pivot != pedigree.None {
			return 0, 0, false
		}
		pivot, kind = kid, PivotKid
	}
	if kind == PivotParents {
		if cp.opts.NoBothParents {
			return 0, 0, false
		}
		pivot = pedigree.None
	}
	return pivot, kind, true
}

func (cp *compiler) emitSimple(f *family) error {
	pivot, kind, _ := cp.simplePivot(f)
	at := len(cp.seq.Ops)
	op := &Simple{
		Family:    f.index,
		Sire:      f.sire,
		Dam:       f.dam,
		Kids:      f.kids,
		Pivot:     pivot,
		PivotKind: kind,
	}
	for _, m := range f.members() {
		rf, err := cp.pool.takeSlot(m, at)
		if err != nil {
			return err
		}
		if rf != nil {
			op.Inputs = append(op.Inputs, rf.ID)
		}
	}

	var pivots []int
	switch kind {
	case PivotNone:
	case PivotParents:
		pivots = []int{f.sire, f.dam}
	default:
		pivots = []int{pivot}
	}
	for _, m := range f.members() {
		if slices.Contains(pivots, m) {
			continue
		}
		op.Peeled = append(op.Peeled, cp.genes(m)...)
		cp.ind(m).Flags |= pedigree.Peeled
		cp.order[m] = 0
	}
	for _, v := range pivots {
		rf, err := cp.pool.fill(v, cp.genes(v), at)
		if err != nil {
			return err
		}
		rf.Index = cp.terms(v)
		op.Outputs = append(op.Outputs, rf.ID)
		cp.ind(v).Flags |= pedigree.WasPivot
		cp.order[v]--
	}
	cp.seq.Ops = append(cp.seq.Ops, Op{Kind: KindSimple, Simple: op})
	return nil
}

// terms lists the packed genotypes still possible for pivot i, one allele
// per gene of the individual.
func (cp *compiler) terms(i int) []uint64 {
	rows := cp.t.Rows(i)
	var out []uint64
	switch gs := cp.genes(i); {
	case len(gs) == 2:
		for a, r := range rows {
			r.Each(func(b int) { out = append(out, Pack([]int{a, b}, cp.bits)) })
		}
	case gs[0].Copy == Maternal:
		for a, r := range rows {
			if !r.IsEmpty() {
				out = append(out, Pack([]int{a}, cp.bits))
			}
		}
	default:
		rows[0].Each(func(b int) { out = append(out, Pack([]int{b}, cp.bits)) })
	}
	return out
}
