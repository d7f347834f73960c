package elim

import "github.com/matzehuels/genelim/pkg/alleleset"

// Scratch holds the working arrays of elimination passes. A single Scratch
// is reused across components and loci; buffers grow to the largest
// component seen and are never shrunk. Tables built on a Scratch are valid
// until the next call to [NewTable] with the same Scratch.
type Scratch struct {
	pos   []int
	rows  []alleleset.Set
	dirty []bool
	inSet []bool
	queue []int

	// per-family buffers
	kidRows []alleleset.Set
	sireSet []alleleset.Set
	damSet  []alleleset.Set
	ccm     []alleleset.Set
	ccm1    []alleleset.Set
	hemi    []alleleset.Set
	uniq    []int
	kids    []int
	pairs   []pair
	changed []int
}

type pair struct {
	a, b int
	mask alleleset.Set
}

// NewScratch returns an empty Scratch.
func NewScratch() *Scratch { return &Scratch{} }

func growSets(buf []alleleset.Set, n int) []alleleset.Set {
	if cap(buf) < n {
		return make([]alleleset.Set, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func growInts(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}

func growBools(buf []bool, n int) []bool {
	if cap(buf) < n {
		return make([]bool, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}
