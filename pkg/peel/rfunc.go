package peel

import (
	"fmt"
	"slices"
)

// RFunc describes a partial likelihood produced by one operation and
// consumed by exactly one later operation.
type RFunc struct {
	ID    int    `json:"id"`
	Genes []Gene `json:"genes"`

	// Index lists the admissible joint allele combinations, packed with
	// [Pack]. It is nil when the evaluator enumerates the combinations
	// itself.
	Index []uint64 `json:"index,omitempty"`

	Producer int `json:"producer"`
	Consumer int `json:"consumer"`
}

// Has reports whether g is one of the R-function's genes.
func (r *RFunc) Has(g Gene) bool { return indexOf(r.Genes, g) >= 0 }

// Pack encodes one allele per gene into a single index, bits per gene, the
// first gene in the lowest bits.
func Pack(alleles []int, bits int) uint64 {
	var x uint64
	for k, a := range alleles {
		x |= uint64(a) << (uint(k) * uint(bits))
	}
	return x
}

// pool tracks produced R-functions until they are consumed. A produced
// R-function is live until [pool.take] moves it to its consumer; taking it
// again fails.
type pool struct {
	all   []*RFunc
	live  []*RFunc     // ascending ID
	slots map[int]*RFunc // pivot individual -> live R-function from a simple peel
}

func newPool() *pool {
	return &pool{slots: make(map[int]*RFunc)}
}

func (p *pool) produce(genes []Gene, producer int) *RFunc {
	rf := &RFunc{
		ID:       len(p.all),
		Genes:    slices.Clone(genes),
		Producer: producer,
		Consumer: -1,
	}
	p.all = append(p.all, rf)
	p.live = append(p.live, rf)
	return rf
}

// fill produces the R-function of pivot i. A pivot holds at most one live
// R-function.
func (p *pool) fill(i int, genes []Gene, producer int) (*RFunc, error) {
	if rf, ok := p.slots[i]; ok {
		return nil, &InternalError{Phase: "primary", Err: fmt.Errorf("%w: individual %d already holds R-function %d", ErrSlotFull, i, rf.ID)}
	}
	rf := p.produce(genes, producer)
	p.slots[i] = rf
	return rf, nil
}

// takeSlot consumes the live R-function of pivot i, if any.
func (p *pool) takeSlot(i, consumer int) (*RFunc, error) {
	rf, ok := p.slots[i]
	if !ok {
		return nil, nil
	}
	delete(p.slots, i)
	return rf, p.take(rf, consumer)
}

func (p *pool) take(rf *RFunc, consumer int) error {
	k := slices.Index(p.live, rf)
	if k < 0 {
		return &InternalError{Phase: "consume", Err: fmt.Errorf("%w: R-function %d", ErrConsumed, rf.ID)}
	}
	p.live = slices.Delete(p.live, k, k+1)
	for i, s := range p.slots {
		if s == rf {
			delete(p.slots, i)
		}
	}
	rf.Consumer = consumer
	return nil
}

// retract removes the most recently produced R-function before anything
// could have consumed it.
func (p *pool) retract(rf *RFunc) {
	if n := len(p.all); n > 0 && p.all[n-1] == rf {
		p.all = p.all[:n-1]
	}
	if k := slices.Index(p.live, rf); k >= 0 {
		p.live = slices.Delete(p.live, k, k+1)
	}
}
