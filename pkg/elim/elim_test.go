package elim

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/matzehuels/genelim/pkg/alleleset"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

func newPedigree(t *testing.T, records []pedigree.Record) *pedigree.Pedigree {
	t.Helper()
	p, err := pedigree.New(records)
	if err != nil {
		t.Fatalf("pedigree.New() error: %v", err)
	}
	return p
}

func trio(childSex pedigree.Sex) []pedigree.Record {
	return []pedigree.Record{
		{ID: "f", Sex: pedigree.SexMale},
		{ID: "m", Sex: pedigree.SexFemale},
		{ID: "c", Sire: "f", Dam: "m", Sex: childSex},
	}
}

func run(t *testing.T, p *pedigree.Pedigree, l *pedigree.Locus, n int) (*Table, error) {
	t.Helper()
	l.MarkData(p)
	tab, err := NewTable(p, p.Components[0], l, n, NewScratch())
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	_, err = tab.Propagate(p.Components[0].Families)
	return tab, err
}

func TestScenarioTrioRestrictsMother(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexFemale))
	l := &pedigree.Locus{Name: "A", Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{1, 1}, {0, 0}, {1, 2}}}

	tab, err := run(t, p, l, 2)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}
	mother := tab.Genotypes(1)
	if len(mother) == 0 {
		t.Fatal("mother has no genotypes left")
	}
	for _, g := range mother {
		if g[0] != 2 && g[1] != 2 {
			t.Errorf("mother genotype %v lacks allele 2", g)
		}
	}
	if !tab.Possible(1, 0, 1) || !tab.Possible(1, 1, 1) {
		t.Errorf("mother rows = %v, want 1/2 and 2/2 possible", tab.Rows(1))
	}
	// The child received 1 from the father, so 2 is maternal.
	if tab.Count(2) != 1 || !tab.Possible(2, 1, 0) {
		t.Errorf("child rows = %v, want only (mat 2, pat 1)", tab.Rows(2))
	}
}

func TestScenarioUnreachableAllele(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexFemale))
	l := &pedigree.Locus{Name: "B", Alleles: []string{"1", "2", "3"},
		Genotypes: []pedigree.Genotype{{1, 1}, {1, 1}, {3, 3}}}

	_, err := run(t, p, l, 3)
	var ie *InconsistencyError
	if !errors.As(err, &ie) {
		t.Fatalf("error = %v, want *InconsistencyError", err)
	}
	if ie.Family != 0 || ie.Sire != "f" || ie.Dam != "m" {
		t.Errorf("InconsistencyError = %+v", ie)
	}
	if !errors.Is(err, ErrInconsistent) {
		t.Error("error should wrap ErrInconsistent")
	}
}

func TestScenarioYLinkedSon(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexMale))
	l := &pedigree.Locus{Name: "C", Link: pedigree.LinkY, Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{2, 0}, {0, 0}, {1, 0}}}

	_, err := run(t, p, l, 2)
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("error = %v, want inconsistency", err)
	}
}

func TestYLinkedRestrictsFatherAndSon(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexMale))
	l := &pedigree.Locus{Name: "Y", Link: pedigree.LinkY, Alleles: []string{"1", "2", "3"},
		Genotypes: []pedigree.Genotype{{0, 0}, {0, 0}, {3, 0}}}

	tab, err := run(t, p, l, 3)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}
	if got := tab.Rows(0)[0]; got != alleleset.Of(2) {
		t.Errorf("father Y set = %v, want {3}", got)
	}
	if tab.Genotypes(1) != nil {
		t.Error("mother carries no Y-linked copy")
	}
}

func TestXLinked(t *testing.T) {
	tests := []struct {
		name      string
		childSex  pedigree.Sex
		genotypes []pedigree.Genotype
		wantErr   bool
	}{
		{"daughter gets father's allele", pedigree.SexFemale, []pedigree.Genotype{{1, 0}, {0, 0}, {1, 2}}, false},
		{"daughter lacks father's allele", pedigree.SexFemale, []pedigree.Genotype{{1, 0}, {0, 0}, {2, 2}}, true},
		{"son ignores father", pedigree.SexMale, []pedigree.Genotype{{1, 0}, {2, 2}, {2, 0}}, false},
		{"son allele missing in mother", pedigree.SexMale, []pedigree.Genotype{{2, 0}, {1, 1}, {2, 0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPedigree(t, trio(tt.childSex))
			l := &pedigree.Locus{Name: "X", Link: pedigree.LinkX, Alleles: []string{"1", "2"}, Genotypes: tt.genotypes}
			_, err := run(t, p, l, 2)
			if (err != nil) != tt.wantErr {
				t.Errorf("Propagate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestXLinkedMotherRestrictedBySon(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexMale))
	l := &pedigree.Locus{Name: "X", Link: pedigree.LinkX, Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{0, 0}, {0, 0}, {2, 0}}}
	tab, err := run(t, p, l, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range tab.Genotypes(1) {
		if g[0] != 2 && g[1] != 2 {
			t.Errorf("mother genotype %v cannot transmit 2", g)
		}
	}
	if got := tab.Genotypes(2); len(got) != 1 || got[0] != (pedigree.Genotype{2, 0}) {
		t.Errorf("son genotypes = %v", got)
	}
}

func TestNewTableUnknownSex(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexUnknown))
	l := &pedigree.Locus{Name: "X", Link: pedigree.LinkX, Alleles: []string{"1"},
		Genotypes: make([]pedigree.Genotype, 3)}
	if _, err := NewTable(p, p.Components[0], l, 1, nil); !errors.Is(err, ErrUnknownSex) {
		t.Errorf("NewTable() error = %v, want ErrUnknownSex", err)
	}
}

func TestNewTableAlleleCount(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexMale))
	l := &pedigree.Locus{Name: "A", Alleles: []string{"1"}, Genotypes: make([]pedigree.Genotype, 3)}
	if _, err := NewTable(p, p.Components[0], l, alleleset.MaxAlleles+1, nil); !errors.Is(err, ErrAlleleCount) {
		t.Errorf("NewTable() error = %v, want ErrAlleleCount", err)
	}
}

func TestInitRows(t *testing.T) {
	tests := []struct {
		name string
		g    pedigree.Genotype
		sex  pedigree.Sex
		link pedigree.LinkType
		want []alleleset.Set
	}{
		{"auto both", pedigree.Genotype{1, 3}, pedigree.SexMale, pedigree.LinkAutosomal,
			[]alleleset.Set{alleleset.Of(2), 0, alleleset.Of(0)}},
		{"auto one", pedigree.Genotype{2, 0}, pedigree.SexFemale, pedigree.LinkAutosomal,
			[]alleleset.Set{alleleset.Of(1), alleleset.Full(3), alleleset.Of(1)}},
		{"auto none", pedigree.Genotype{}, pedigree.SexFemale, pedigree.LinkAutosomal,
			[]alleleset.Set{alleleset.Full(3), alleleset.Full(3), alleleset.Full(3)}},
		{"x male", pedigree.Genotype{3, 0}, pedigree.SexMale, pedigree.LinkX,
			[]alleleset.Set{0, 0, alleleset.Of(0)}},
		{"x male unknown", pedigree.Genotype{}, pedigree.SexMale, pedigree.LinkX,
			[]alleleset.Set{alleleset.Of(0), alleleset.Of(0), alleleset.Of(0)}},
		{"y male", pedigree.Genotype{2, 0}, pedigree.SexMale, pedigree.LinkY,
			[]alleleset.Set{alleleset.Of(1), 0, 0}},
		{"y female", pedigree.Genotype{}, pedigree.SexFemale, pedigree.LinkY,
			[]alleleset.Set{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]alleleset.Set, 3)
			initRows(rows, tt.g, tt.sex, tt.link, 3)
			for a := range rows {
				if rows[a] != tt.want[a] {
					t.Errorf("row %d = %v, want %v", a, rows[a], tt.want[a])
				}
			}
		})
	}
}

func TestCleanSexLinked(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexMale))
	l := &pedigree.Locus{Name: "Y", Link: pedigree.LinkY, Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{1, 2}, {1, 1}, {2, 2}}}
	dels := CleanSexLinked(p, l)
	if len(dels) != 2 {
		t.Fatalf("deletions = %+v, want 2", dels)
	}
	if dels[0].ID != "f" || dels[1].ID != "m" {
		t.Errorf("deleted %s, %s; want f, m", dels[0].ID, dels[1].ID)
	}
	if l.Genotypes[0].Observed() != 0 || l.Genotypes[1].Observed() != 0 {
		t.Error("deleted genotypes were not cleared")
	}
	if l.Genotypes[2] != (pedigree.Genotype{2, 2}) {
		t.Error("homozygous son should be kept")
	}

	auto := &pedigree.Locus{Name: "A", Alleles: []string{"1", "2"}, Genotypes: []pedigree.Genotype{{1, 2}, {1, 2}, {1, 2}}}
	if CleanSexLinked(p, auto) != nil {
		t.Error("autosomal loci must not be cleaned")
	}
}

func TestDump(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexFemale))
	l := &pedigree.Locus{Name: "A", Alleles: []string{"a", "b"},
		Genotypes: []pedigree.Genotype{{1, 1}, {0, 0}, {1, 2}}}
	tab, err := run(t, p, l, 2)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := tab.Dump(&buf, func(c int) string { return l.Alleles[c-1] }); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"a/a", "a/b", "b/b"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("Dump() lines = %d, want 3", got)
	}
}

// --- simulated pedigrees ---

// family tree used by the property tests: two founder couples, their
// offspring intermarry and have a third generation.
var simRecords = []pedigree.Record{
	{ID: "f1", Sex: pedigree.SexMale},
	{ID: "f2", Sex: pedigree.SexFemale},
	{ID: "f3", Sex: pedigree.SexMale},
	{ID: "f4", Sex: pedigree.SexFemale},
	{ID: "a1", Sire: "f1", Dam: "f2", Sex: pedigree.SexMale},
	{ID: "a2", Sire: "f1", Dam: "f2", Sex: pedigree.SexFemale},
	{ID: "a3", Sire: "f1", Dam: "f2", Sex: pedigree.SexMale},
	{ID: "b1", Sire: "f3", Dam: "f4", Sex: pedigree.SexFemale},
	{ID: "b2", Sire: "f3", Dam: "f4", Sex: pedigree.SexMale},
	{ID: "c1", Sire: "a1", Dam: "b1", Sex: pedigree.SexFemale},
	{ID: "c2", Sire: "a1", Dam: "b1", Sex: pedigree.SexMale},
	{ID: "c3", Sire: "b2", Dam: "a2", Sex: pedigree.SexFemale},
	{ID: "c4", Sire: "b2", Dam: "a2", Sex: pedigree.SexMale},
}

// simulate draws ordered true genotypes by Mendelian transmission and
// returns them with an observed locus where some genotypes are missing.
func simulate(rng *rand.Rand, p *pedigree.Pedigree, link pedigree.LinkType, n int) ([]pedigree.Genotype, *pedigree.Locus) {
	truth := make([]pedigree.Genotype, p.Len())
	for _, ind := range p.Individuals {
		male := ind.Sex == pedigree.SexMale
		var mat, pat int
		if ind.IsFounder() {
			mat, pat = rng.Intn(n)+1, rng.Intn(n)+1
		} else {
			dam, sire := truth[ind.Dam], truth[ind.Sire]
			mat = dam[rng.Intn(2)]
			switch link {
			case pedigree.LinkX:
				pat = sire[0]
			default:
				pat = sire[rng.Intn(2)]
			}
		}
		switch {
		case link == pedigree.LinkX && male:
			pat = 0
		case link == pedigree.LinkY && male:
			if !ind.IsFounder() {
				pat = truth[ind.Sire][1]
			}
			mat = 0
		case link == pedigree.LinkY:
			mat, pat = 0, 0
		}
		truth[ind.Index] = pedigree.Genotype{mat, pat}
	}

	l := &pedigree.Locus{Name: "sim", Link: link, Genotypes: make([]pedigree.Genotype, p.Len())}
	for a := 0; a < n; a++ {
		l.Alleles = append(l.Alleles, string(rune('A'+a)))
	}
	for i, g := range truth {
		if rng.Float64() < 0.35 {
			continue
		}
		obs := g
		if link == pedigree.LinkY && obs[0] == 0 {
			obs = pedigree.Genotype{obs[1], 0}
		}
		if obs[1] != 0 && rng.Intn(2) == 0 {
			obs[0], obs[1] = obs[1], obs[0]
		}
		l.Genotypes[i] = obs
	}
	return truth, l
}

func truePossible(tab *Table, i int, g pedigree.Genotype) bool {
	switch {
	case !tab.Carrier(i):
		return true
	case tab.Link == pedigree.LinkY:
		return tab.Rows(i)[0].Has(g[1] - 1)
	case tab.hemizygous(i):
		return tab.Rows(i)[g[0]-1].Has(0)
	}
	return tab.Possible(i, g[0]-1, g[1]-1)
}

func TestPropagateSoundAndMonotone(t *testing.T) {
	for _, link := range []pedigree.LinkType{pedigree.LinkAutosomal, pedigree.LinkX, pedigree.LinkY} {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			p := newPedigree(t, simRecords)
			truth, l := simulate(rng, p, link, 4)
			l.MarkData(p)

			tab, err := NewTable(p, p.Components[0], l, 4, NewScratch())
			if err != nil {
				t.Fatalf("NewTable() error: %v", err)
			}
			initial := tab.Clone()
			if _, err := tab.Propagate(p.Components[0].Families); err != nil {
				t.Fatalf("%s seed %d: consistent data reported %v", link, seed, err)
			}
			if !tab.SubsetOf(initial) {
				t.Errorf("%s seed %d: propagation added genotypes", link, seed)
			}
			for i, g := range truth {
				if !truePossible(tab, i, g) {
					t.Errorf("%s seed %d: true genotype %v of %s eliminated", link, seed, g, p.ID(i))
				}
			}
		}
	}
}

func TestPropagateOrderIndependent(t *testing.T) {
	for _, link := range []pedigree.LinkType{pedigree.LinkAutosomal, pedigree.LinkX} {
		for seed := int64(1); seed <= 15; seed++ {
			rng := rand.New(rand.NewSource(seed))
			p := newPedigree(t, simRecords)
			_, l := simulate(rng, p, link, 3)
			l.MarkData(p)

			var ref *Table
			families := append([]int(nil), p.Components[0].Families...)
			for trial := 0; trial < 6; trial++ {
				rng.Shuffle(len(families), func(i, j int) { families[i], families[j] = families[j], families[i] })
				tab, err := NewTable(p, p.Components[0], l, 3, NewScratch())
				if err != nil {
					t.Fatal(err)
				}
				if _, err := tab.Propagate(families); err != nil {
					t.Fatalf("Propagate() error: %v", err)
				}
				if ref == nil {
					ref = tab.Clone()
					continue
				}
				if !tab.Equal(ref) {
					t.Errorf("%s seed %d: order %v converged to a different table", link, seed, families)
				}
			}
		}
	}
}

func TestScratchReuse(t *testing.T) {
	s := NewScratch()
	p := newPedigree(t, trio(pedigree.SexFemale))
	big := &pedigree.Locus{Name: "big", Alleles: []string{"1", "2", "3", "4"},
		Genotypes: []pedigree.Genotype{{1, 2}, {3, 4}, {1, 3}}}
	small := &pedigree.Locus{Name: "small", Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{1, 1}, {0, 0}, {1, 2}}}

	for _, l := range []*pedigree.Locus{big, small, big} {
		p.ResetLocus()
		l.MarkData(p)
		tab, err := NewTable(p, p.Components[0], l, len(l.Alleles), s)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := tab.Propagate(p.Components[0].Families); err != nil {
			t.Errorf("locus %s: %v", l.Name, err)
		}
	}
}

func TestAnnotate(t *testing.T) {
	p := newPedigree(t, trio(pedigree.SexFemale))
	l := &pedigree.Locus{Name: "A", Alleles: []string{"1", "2"},
		Genotypes: []pedigree.Genotype{{1, 1}, {0, 0}, {1, 2}}}
	tab, err := run(t, p, l, 2)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}
	tab.Annotate()

	tests := []struct {
		id        string
		fixed     bool
		genotypes int
	}{
		{"f", true, 1},
		{"m", false, 3},
		{"c", true, 1},
	}
	for _, tt := range tests {
		i, _ := p.Lookup(tt.id)
		ind := p.Individuals[i]
		if got := ind.Flags.Has(pedigree.Fixed); got != tt.fixed {
			t.Errorf("%s Fixed = %v, want %v", tt.id, got, tt.fixed)
		}
		if ind.Stats.Genotypes != tt.genotypes {
			t.Errorf("%s Stats.Genotypes = %d, want %d", tt.id, ind.Stats.Genotypes, tt.genotypes)
		}
	}
}
