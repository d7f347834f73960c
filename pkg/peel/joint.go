package peel

import (
	"fmt"
	"slices"

	"github.com/matzehuels/genelim/pkg/order"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// hap tracks, per individual, which genes and links are still pending in
// the joint pass.
type hap uint16

const (
	hapMat hap = 1 << iota // maternal gene not yet peeled
	hapPat                 // paternal gene not yet peeled
	hapDat                 // genotype data (or an R-function) ties the two genes
	hapJnt                 // both genes must be peeled together with each other
	hapP                   // paternal gene still linked to the sire
	hapM                   // maternal gene still linked to the dam
	hadP                   // sire link used by the open operation
	hadM                   // dam link used by the open operation
)

// jointPass groups the remaining genes into complex operations along a
// min-degree elimination order.
type jointPass struct {
	*compiler
	flags map[int]hap

	inv       []Gene   // genes involved with the current pivot
	collected []*RFunc // inputs of the open operation
	peeled    []Gene   // genes peeled so far by the open operation
	prev      []Gene   // genes retained by the open operation
	out       *RFunc   // output of the open operation
}

func (cp *compiler) joint() error {
	j := &jointPass{compiler: cp}
	j.setFlags()
	genes := j.geneList()
	if len(genes) == 0 {
		return nil
	}

	idx := make(map[Gene]int, len(genes))
	for k, g := range genes {
		idx[g] = k
	}
	g := order.NewGraph(len(genes))
	for k, gene := range genes {
		for _, nb := range j.neighbours(gene, false)[1:] {
			v, ok := idx[nb]
			if !ok {
				return &InternalError{Phase: "order", Err: fmt.Errorf("%w: %s adjacent to %s", ErrMissingGene, nb, gene)}
			}
			if err := g.AddEdge(k, v); err != nil {
				return &InternalError{Phase: "order", Err: err}
			}
		}
	}
	e := order.MinDegree(g)
	cp.seq.Fill = e.Fill
	for _, v := range e.Order {
		cp.seq.Order = append(cp.seq.Order, genes[v])
	}

	for x := 0; x <= len(cp.seq.Order); x++ {
		last := x == len(cp.seq.Order)
		merge := false
		var pivot Gene
		if !last {
			pivot = cp.seq.Order[x]
			merge = j.mergeable(j.neighbours(pivot, false))
		}
		if len(j.peeled) > 0 && merge && cp.bits*(len(j.peeled)+1) > cp.opts.WordBits {
			merge = false
		}
		if len(j.peeled) > 0 && !merge {
			if err := j.close(); err != nil {
				return err
			}
		}
		if last {
			break
		}
		inv := j.neighbours(pivot, true)
		if len(j.peeled) == 0 {
			j.out = cp.pool.produce(inv[1:], len(cp.seq.Ops))
		} else {
			if k := indexOf(j.out.Genes, pivot); k >= 0 {
				j.out.Genes = slices.Delete(j.out.Genes, k, k+1)
			}
			j.collected = slices.DeleteFunc(j.collected, func(rf *RFunc) bool { return rf == j.out })
		}
		j.prev = slices.Clone(inv[1:])
		j.peeled = append(j.peeled, pivot)
	}
	cp.fams = nil
	return nil
}

func (j *jointPass) haps(i int) hap {
	ind := j.ind(i)
	if ind.Flags.Has(pedigree.Peeled) {
		return 0
	}
	var h hap
	for _, g := range j.genes(i) {
		if g.Copy == Maternal {
			h |= hapMat
		} else {
			h |= hapPat
		}
	}
	if ind.Flags&(pedigree.HasData|pedigree.WasPivot) != 0 {
		h |= hapDat
	}
	if h&(hapDat|hapMat|hapPat) == hapDat|hapMat|hapPat {
		h |= hapJnt
	}
	return h
}

// setFlags marks the pending genes and parent-offspring links of the
// families left after the primary pass.
func (j *jointPass) setFlags() {
	j.flags = make(map[int]hap)
	link := j.t.Link
	for _, f := range j.fams {
		sire, dam := f.sire, f.dam
		var fp, fm hap
		if sire != pedigree.None {
			fp = j.haps(sire)
		}
		if dam != pedigree.None {
			fm = j.haps(dam)
		}
		for _, kid := range f.kids {
			if j.ind(kid).Flags.Has(pedigree.Peeled) {
				continue
			}
			j.flags[kid] |= j.haps(kid)
			male := j.ind(kid).Sex == pedigree.SexMale
			switch {
			case link == pedigree.LinkY:
				if sire != pedigree.None {
					j.flags[kid] |= hapP
					fp |= hapPat
				}
			case link == pedigree.LinkAutosomal || !male:
				if sire != pedigree.None {
					j.flags[kid] |= hapP
					if link == pedigree.LinkX {
						fp |= hapMat
					} else {
						fp |= hapMat | hapPat | hapJnt
					}
				}
				if dam != pedigree.None {
					j.flags[kid] |= hapM
					fm |= hapMat | hapPat | hapJnt
				}
			default:
				if dam != pedigree.None {
					j.flags[kid] |= hapM
					fm |= hapMat | hapPat | hapJnt
				}
			}
		}
		if sire != pedigree.None {
			j.flags[sire] |= fp
		}
		if dam != pedigree.None {
			j.flags[dam] |= fm
		}
	}
}

// geneList returns the pending genes in gene order.
func (j *jointPass) geneList() []Gene {
	var out []Gene
	for _, i := range j.c.Members {
		h := j.flags[i]
		if h&hapMat != 0 {
			out = append(out, Gene{i, Maternal})
		}
		if h&hapPat != 0 {
			out = append(out, Gene{i, Paternal})
		}
	}
	return out
}

func (j *jointPass) linked(i int) bool {
	h := j.flags[i]
	return h&hapJnt != 0 || (len(j.genes(i)) == 2 && h&hapDat != 0)
}

func (j *jointPass) add(g Gene) {
	if indexOf(j.inv, g) < 0 {
		j.inv = append(j.inv, g)
	}
}

func (j *jointPass) isCollected(rf *RFunc) bool { return slices.Contains(j.collected, rf) }

// neighbours returns the pivot followed by every gene that must be
// involved when the pivot is peeled. With apply set the links used are
// consumed and the R-functions involved are collected into the open
// operation.
func (j *jointPass) neighbours(pivot Gene, apply bool) []Gene {
	j.inv = append(j.inv[:0], pivot)
	i := pivot.Individual
	ind := j.ind(i)
	if j.linked(i) {
		j.add(pivot.Other())
	}

	switch {
	case pivot.Copy == Paternal && j.flags[i]&hapP != 0:
		switch j.t.Link {
		case pedigree.LinkAutosomal:
			j.add(Gene{ind.Sire, Maternal})
			j.add(Gene{ind.Sire, Paternal})
		case pedigree.LinkX:
			j.add(Gene{ind.Sire, Maternal})
		case pedigree.LinkY:
			j.add(Gene{ind.Sire, Paternal})
		}
		if apply {
			j.flags[i] |= hadP
		}
	case pivot.Copy == Maternal && j.flags[i]&hapM != 0:
		j.add(Gene{ind.Dam, Maternal})
		j.add(Gene{ind.Dam, Paternal})
		if apply {
			j.flags[i] |= hadM
		}
	}

	for _, f := range ind.Families {
		fam := j.p.Families[f]
		for _, kid := range fam.Kids {
			if fam.Sire == i && j.flags[kid]&hapP != 0 {
				j.add(Gene{kid, Paternal})
				if apply {
					j.flags[kid] ^= hapP | hadP
				}
			}
			if fam.Dam == i && j.flags[kid]&hapM != 0 {
				j.add(Gene{kid, Maternal})
				if apply {
					j.flags[kid] ^= hapM | hadM
				}
			}
		}
	}

	for _, rf := range j.pool.live {
		if j.isCollected(rf) || !rf.Has(pivot) {
			continue
		}
		for _, g := range rf.Genes {
			j.add(g)
		}
		if apply {
			j.collected = append(j.collected, rf)
		}
	}

	if apply {
		for _, rf := range j.pool.live {
			if !j.isCollected(rf) && !rf.Has(pivot) && containsAll(j.inv, rf.Genes) {
				j.collected = append(j.collected, rf)
			}
		}
		if pivot.Copy == Paternal {
			j.flags[i] &^= hapP | hapPat | hapJnt | hapDat
		} else {
			j.flags[i] &^= hapM | hapMat | hapJnt | hapDat
		}
	}
	return j.inv
}

// mergeable reports whether peeling the pivot adds nothing to the genes
// retained by the open operation.
func (j *jointPass) mergeable(inv []Gene) bool {
	return len(j.prev) > 0 && containsAll(j.prev, inv)
}

// close emits the open operation.
func (j *jointPass) close() error {
	at := len(j.seq.Ops)
	involved := slices.Concat(j.peeled, j.prev)
	cx := &Complex{
		Involved: involved,
		NPeel:    len(j.peeled),
		Flags:    make([]GeneFlags, len(involved)),
		Output:   -1,
	}
	for k, g := range involved {
		had := hadM
		if g.Copy == Paternal {
			had = hadP
		}
		if h := j.flags[g.Individual]; h&had != 0 {
			cx.Flags[k] |= FromParent
			j.flags[g.Individual] = h &^ had
		}
	}

	slices.SortFunc(j.collected, func(a, b *RFunc) int { return a.ID - b.ID })
	for _, rf := range j.collected {
		pos := make([]int, len(rf.Genes))
		for k, g := range rf.Genes {
			pos[k] = indexOf(involved, g)
			if pos[k] < 0 {
				return &InternalError{Phase: "joint", Err: fmt.Errorf("%w: %s of R-function %d not involved", ErrMissingGene, g, rf.ID)}
			}
			cx.Flags[pos[k]] |= InRFunc
		}
		if err := j.pool.take(rf, at); err != nil {
			return err
		}
		cx.Inputs = append(cx.Inputs, rf.ID)
		cx.InputPos = append(cx.InputPos, pos)
	}

	for k, g := range involved {
		l := indexOf(involved[k+1:], g.Other())
		if l < 0 {
			continue
		}
		l += k + 1
		covered := slices.ContainsFunc(j.collected, func(rf *RFunc) bool {
			return rf.Has(g) && rf.Has(g.Other())
		})
		if !covered {
			cx.Flags[k] |= Joint
			cx.Flags[l] |= Joint
		}
	}

	if len(j.prev) == 0 {
		j.pool.retract(j.out)
	} else {
		j.out.Genes = slices.Clone(j.prev)
		j.out.Producer = at
		cx.Output = j.out.ID
	}
	if len(involved) > j.opts.MaxInvolved {
		return &InternalError{Phase: "joint", Err: fmt.Errorf("%w: %d genes involved, limit %d", ErrCliqueBound, len(involved), j.opts.MaxInvolved)}
	}
	j.seq.Ops = append(j.seq.Ops, Op{Kind: KindComplex, Complex: cx})

	j.peeled = j.peeled[:0]
	j.prev = nil
	j.collected = nil
	j.out = nil
	return nil
}
