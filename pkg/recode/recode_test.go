package recode

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

// tenMembers builds one sire, one dam and eight offspring: a single
// component of size 10.
func tenMembers(t *testing.T) *pedigree.Pedigree {
	t.Helper()
	records := []pedigree.Record{
		{ID: "s", Sex: pedigree.SexMale},
		{ID: "d", Sex: pedigree.SexFemale},
	}
	for k := 0; k < 8; k++ {
		records = append(records, pedigree.Record{ID: fmt.Sprintf("k%d", k), Sire: "s", Dam: "d", Sex: pedigree.SexFemale})
	}
	p, err := pedigree.New(records)
	if err != nil {
		t.Fatalf("pedigree.New() error: %v", err)
	}
	return p
}

func labels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("a%d", i+1)
	}
	return out
}

func TestComponentCollapsesUnobserved(t *testing.T) {
	p := tenMembers(t)
	l := &pedigree.Locus{Name: "m", Alleles: labels(10), Genotypes: make([]pedigree.Genotype, 10)}
	l.Genotypes[0] = pedigree.Genotype{1, 5}
	l.Genotypes[1] = pedigree.Genotype{2, 9}
	l.Genotypes[2] = pedigree.Genotype{5, 1}
	l.Genotypes[3] = pedigree.Genotype{0, 9}
	l.MarkData(p)

	tr, err := Component(p, p.Components[0], l, Options{})
	if err != nil {
		t.Fatalf("Component() error: %v", err)
	}
	if want := []int{1, 2, 5, 9, -1}; !reflect.DeepEqual(tr.Old, want) {
		t.Errorf("Old = %v, want %v", tr.Old, want)
	}
	want := []pedigree.Genotype{{1, 3}, {2, 4}, {3, 1}, {4, 0}}
	for i, g := range want {
		if l.Genotypes[i] != g {
			t.Errorf("genotype %d = %v, want %v", i, l.Genotypes[i], g)
		}
	}
	if got := tr.New[7]; got != 5 {
		t.Errorf("unobserved allele 7 -> %d, want lump 5", got)
	}
	if got := tr.Label(l.Alleles, 4); got != "a9" {
		t.Errorf("Label(4) = %q, want a9", got)
	}
	if got := tr.Label(l.Alleles, 5); got != Lump {
		t.Errorf("Label(5) = %q, want %q", got, Lump)
	}
}

func TestComponentIdempotent(t *testing.T) {
	p := tenMembers(t)
	l := &pedigree.Locus{Name: "m", Alleles: labels(10), Genotypes: make([]pedigree.Genotype, 10)}
	l.Genotypes[0] = pedigree.Genotype{3, 7}
	l.Genotypes[4] = pedigree.Genotype{7, 7}
	l.MarkData(p)

	first, err := Component(p, p.Components[0], l, Options{ExtraAllele: true})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	recoded := &pedigree.Locus{Name: "m", Alleles: first.Labels(l.Alleles), Genotypes: l.Genotypes}
	before := append([]pedigree.Genotype(nil), recoded.Genotypes...)

	second, err := Component(p, p.Components[0], recoded, Options{ExtraAllele: true})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !second.IsIdentity() {
		t.Errorf("second pass Old = %v, want identity", second.Old)
	}
	if !reflect.DeepEqual(before, recoded.Genotypes) {
		t.Errorf("second pass changed genotypes: %v -> %v", before, recoded.Genotypes)
	}
}

func TestComponentAllObservedKeepsAlphabet(t *testing.T) {
	p := tenMembers(t)
	l := &pedigree.Locus{Name: "m", Alleles: labels(2), Genotypes: make([]pedigree.Genotype, 10)}
	l.Genotypes[0] = pedigree.Genotype{1, 2}
	l.MarkData(p)

	tr, err := Component(p, p.Components[0], l, Options{ExtraAllele: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, -1}; !reflect.DeepEqual(tr.Old, want) {
		t.Errorf("Old = %v, want %v", tr.Old, want)
	}
}

func TestComponentWidth(t *testing.T) {
	p := tenMembers(t)
	l := &pedigree.Locus{Name: "m", Alleles: labels(20), Genotypes: make([]pedigree.Genotype, 10)}
	for i := 0; i < 10; i++ {
		l.Genotypes[i] = pedigree.Genotype{2*i + 1, 2*i + 2}
	}
	l.MarkData(p)

	_, err := Component(p, p.Components[0], l, Options{ExtraAllele: true, Width: 8})
	if !errors.Is(err, ErrTooManyAlleles) {
		t.Fatalf("error = %v, want ErrTooManyAlleles", err)
	}
	if !gerrors.Is(err, gerrors.ErrCodeConfiguration) {
		t.Errorf("code = %v, want %v", gerrors.GetCode(err), gerrors.ErrCodeConfiguration)
	}
}

func TestComponentDisabled(t *testing.T) {
	p := tenMembers(t)
	l := &pedigree.Locus{Name: "m", Alleles: labels(4), Genotypes: make([]pedigree.Genotype, 10)}
	l.Genotypes[0] = pedigree.Genotype{4, 4}
	l.MarkData(p)

	tr, err := Component(p, p.Components[0], l, Options{Disabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if !tr.IsIdentity() || tr.N() != 4 {
		t.Errorf("Old = %v, want identity over 4 alleles", tr.Old)
	}
	if l.Genotypes[0] != (pedigree.Genotype{4, 4}) {
		t.Errorf("genotype changed to %v", l.Genotypes[0])
	}
}
