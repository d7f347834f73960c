package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

func trio(t *testing.T) *pedigree.Pedigree {
	t.Helper()
	p, err := pedigree.New([]pedigree.Record{
		{ID: "f", Sex: pedigree.SexMale},
		{ID: "m", Sex: pedigree.SexFemale},
		{ID: "c", Sire: "f", Dam: "m"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPedigreeDOT(t *testing.T) {
	p := trio(t)
	dot := PedigreeDOT(p, Options{
		Title:        "M1",
		Labels:       map[string]string{"f": "1/2"},
		Blanked:      []string{"c"},
		Inconsistent: []int{0},
	})

	for _, want := range []string{
		`"f" [label="f\n1/2", shape=box]`,
		`"m" [label="m", shape=ellipse]`,
		`shape=diamond, fillcolor="` + colorBlanked + `"`,
		`"fam0" -> "c"`,
		`label="M1"`,
		colorAlert,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestPedigreeDOTPruned(t *testing.T) {
	dot := PedigreeDOT(trio(t), Options{Pruned: []string{"m"}, Fixed: []string{"f"}})
	if !strings.Contains(dot, `style="filled,dashed"`) {
		t.Error("pruned individual not dashed")
	}
	if !strings.Contains(dot, "penwidth=2.5") {
		t.Error("fixed individual not bold")
	}
	if strings.Contains(dot, colorAlert) {
		t.Error("no family should be highlighted")
	}
}

func TestSequenceDOT(t *testing.T) {
	p := trio(t)
	seq := &peel.Sequence{
		Locus:   "M1",
		Alleles: 2,
		Ops: []peel.Op{
			{Kind: peel.KindSimple, Simple: &peel.Simple{
				Family: 0, Sire: 0, Dam: 1, Kids: []int{2},
				Pivot: 0, PivotKind: peel.PivotSire,
				Peeled: []peel.Gene{{Individual: 2, Copy: peel.Maternal}, {Individual: 2, Copy: peel.Paternal}},
			}},
			{Kind: peel.KindComplex, Complex: &peel.Complex{
				Involved: []peel.Gene{{Individual: 0, Copy: peel.Maternal}, {Individual: 0, Copy: peel.Paternal}},
				NPeel:    2,
				Inputs:   []int{0},
				Output:   -1,
			}},
		},
		RFuncs: []*peel.RFunc{{ID: 0, Genes: []peel.Gene{{Individual: 0}}, Producer: 0, Consumer: 1}},
	}
	dot := SequenceDOT(p, seq)
	for _, want := range []string{
		`op0 -> op1 [label="f:m"]`,
		`onto f (sire)`,
		`peel c:m c:p`,
		`complex`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRender(t *testing.T) {
	dot := PedigreeDOT(trio(t), Options{})
	out, err := Render(dot, "dot", 1)
	if err != nil || string(out) != dot {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render(dot, "gif", 1); err == nil {
		t.Error("Render(gif) should fail")
	}

	svg, err := Render(dot, "svg", 1)
	if err != nil {
		t.Fatalf("Render(svg) error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestLocusOptions(t *testing.T) {
	p := trio(t)
	lr := &pipeline.LocusResult{
		Locus:         "M1",
		Inconsistency: &pipeline.Inconsistency{Family: 0},
		Diagnosis: &locate.Result{
			Blanked:  []locate.Blank{{Individual: 2, ID: "c"}},
			Families: []int{0},
		},
		Components: []*pipeline.ComponentResult{{
			Possible: []pipeline.Possibility{
				{ID: "f", Fixed: true, Genotypes: []string{"1/1"}},
				{ID: "c", Genotypes: []string{"1/1", "1/2", "1/*", "2/2"}},
			},
		}},
	}
	opts := LocusOptions(p, lr, map[string]string{"f": "1/1"})

	if opts.Title != "M1 (auto)" {
		t.Errorf("title = %q", opts.Title)
	}
	if len(opts.Inconsistent) != 1 || opts.Inconsistent[0] != 0 {
		t.Errorf("inconsistent = %v, want [0]", opts.Inconsistent)
	}
	if len(opts.Blanked) != 1 || opts.Blanked[0] != "c" {
		t.Errorf("blanked = %v", opts.Blanked)
	}
	if len(opts.Pruned) != 1 || opts.Pruned[0] != "m" {
		t.Errorf("pruned = %v, want [m]", opts.Pruned)
	}
	if len(opts.Fixed) != 1 || opts.Fixed[0] != "f" {
		t.Errorf("fixed = %v", opts.Fixed)
	}
	if opts.Labels["c"] != "4 genotypes" || opts.Labels["f"] != "1/1" {
		t.Errorf("labels = %v", opts.Labels)
	}
}
