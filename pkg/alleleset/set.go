// Package alleleset provides a fixed-width set of allele indices.
//
// A [Set] stores alleles 0..MaxAlleles-1 as bits of a single machine word,
// so intersection, union and emptiness tests are single instructions. Allele
// codes in genotype data are 1-based; code c occupies bit c-1.
package alleleset

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxAlleles is the number of alleles a Set can hold.
const MaxAlleles = 64

// Set is a set of allele indices in [0, MaxAlleles).
type Set uint64

// Of returns the set containing the given allele indices.
func Of(alleles ...int) Set {
	var s Set
	for _, a := range alleles {
		s = s.Add(a)
	}
	return s
}

// Full returns the set {0, ..., n-1}. It panics if n is outside [0, MaxAlleles].
func Full(n int) Set {
	if n < 0 || n > MaxAlleles {
		panic(fmt.Sprintf("alleleset: width %d out of range", n))
	}
	if n == MaxAlleles {
		return ^Set(0)
	}
	return Set(1)<<uint(n) - 1
}

// Bit returns the singleton set {a}.
func Bit(a int) Set { return Set(1) << uint(a) }

// Has reports whether a is in the set.
func (s Set) Has(a int) bool { return s&Bit(a) != 0 }

// Add returns s ∪ {a}.
func (s Set) Add(a int) Set { return s | Bit(a) }

// Remove returns s \ {a}.
func (s Set) Remove(a int) Set { return s &^ Bit(a) }

// Union returns s ∪ o.
func (s Set) Union(o Set) Set { return s | o }

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set { return s & o }

// Meets reports whether s ∩ o is non-empty.
func (s Set) Meets(o Set) bool { return s&o != 0 }

// SubsetOf reports whether every element of s is in o.
func (s Set) SubsetOf(o Set) bool { return s&^o == 0 }

// IsEmpty reports whether the set has no elements.
func (s Set) IsEmpty() bool { return s == 0 }

// Len returns the number of elements.
func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }

// Min returns the smallest element, or -1 for the empty set.
func (s Set) Min() int {
	if s == 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(s))
}

// Each calls fn for every element in ascending order.
func (s Set) Each(fn func(a int)) {
	for w := uint64(s); w != 0; w &= w - 1 {
		fn(bits.TrailingZeros64(w))
	}
}

// Slice returns the elements in ascending order.
func (s Set) Slice() []int {
	out := make([]int, 0, s.Len())
	s.Each(func(a int) { out = append(out, a) })
	return out
}

// String formats the set as 1-based allele codes, e.g. "{1,3}".
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.Each(func(a int) {
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, "%d", a+1)
	})
	b.WriteByte('}')
	return b.String()
}

// Width returns the number of bits needed to index n distinct alleles,
// at least 1.
func Width(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}
