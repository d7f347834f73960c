package io

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pedigree"
)

const trioJSON = `{
  "name": "trio",
  "pedigree": [
    {"id": "f", "sex": "M"},
    {"id": "m", "sex": "F"},
    {"id": "c", "sire": "f", "dam": "m", "sex": "F"}
  ],
  "loci": [
    {"name": "M1", "genotypes": {"f": "10/2", "m": "2/2", "c": "0/10"}},
    {"name": "MX", "link": "x", "alleles": ["A", "B"], "genotypes": {"f": "B", "c": "A/B"}}
  ]
}`

const trioTOML = `
name = "trio"

[[pedigree]]
id = "f"
sex = "M"

[[pedigree]]
id = "m"
sex = "F"

[[pedigree]]
id = "c"
sire = "f"
dam = "m"
sex = "F"

[[loci]]
name = "M1"
[loci.genotypes]
f = "10/2"
m = "2/2"
c = "0/10"

[[loci]]
name = "MX"
link = "x"
alleles = ["A", "B"]
[loci.genotypes]
f = "B"
c = "A/B"
`

func checkTrio(t *testing.T, d *Dataset) {
	t.Helper()
	p, loci, err := d.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if p.Len() != 3 || len(loci) != 2 {
		t.Fatalf("got %d individuals, %d loci", p.Len(), len(loci))
	}
	f, _ := p.Lookup("f")
	c, _ := p.Lookup("c")

	m1 := loci[0]
	if !slices.Equal(m1.Alleles, []string{"2", "10"}) {
		t.Errorf("M1 alleles = %v, want numeric order [2 10]", m1.Alleles)
	}
	if got := m1.Genotypes[f]; got != (pedigree.Genotype{2, 1}) {
		t.Errorf("M1 f = %v, want 2/1", got)
	}
	if got := m1.Genotype(c); got != (pedigree.Genotype{2, 0}) {
		t.Errorf("M1 c = %v, want 2/0", got)
	}

	mx := loci[1]
	if mx.Link != pedigree.LinkX {
		t.Errorf("MX link = %v, want x", mx.Link)
	}
	if got := mx.Genotypes[f]; got != (pedigree.Genotype{2, 0}) {
		t.Errorf("MX f = %v, want 2/0", got)
	}
}

func TestReadJSON(t *testing.T) {
	d, err := ReadJSON(strings.NewReader(trioJSON))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	checkTrio(t, d)
}

func TestReadTOML(t *testing.T) {
	d, err := ReadTOML(strings.NewReader(trioTOML))
	if err != nil {
		t.Fatalf("ReadTOML() error: %v", err)
	}
	checkTrio(t, d)
}

func TestImportByExtension(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"a.json": trioJSON, "b.toml": trioTOML} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Import(path)
		if err != nil {
			t.Fatalf("Import(%s) error: %v", name, err)
		}
		checkTrio(t, d)
	}

	_, err := Import(filepath.Join(dir, "missing.json"))
	if !gerrors.Is(err, gerrors.ErrCodeNotFound) {
		t.Errorf("Import(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestBuildErrors(t *testing.T) {
	ped := []pedigree.Record{{ID: "f", Sex: pedigree.SexMale}}
	tests := []struct {
		name string
		loci []Locus
		code gerrors.Code
	}{
		{"unknown individual", []Locus{{Name: "M1", Genotypes: map[string]string{"q": "1/1"}}}, gerrors.ErrCodeInvalidLocus},
		{"unknown allele", []Locus{{Name: "M1", Alleles: []string{"1"}, Genotypes: map[string]string{"f": "1/2"}}}, gerrors.ErrCodeInvalidLocus},
		{"duplicate allele", []Locus{{Name: "M1", Alleles: []string{"1", "1"}}}, gerrors.ErrCodeInvalidLocus},
		{"missing marker as label", []Locus{{Name: "M1", Alleles: []string{"0"}}}, gerrors.ErrCodeInvalidLocus},
		{"duplicate locus", []Locus{{Name: "M1"}, {Name: "M1"}}, gerrors.ErrCodeInvalidLocus},
		{"bad locus name", []Locus{{Name: "../etc"}}, gerrors.ErrCodeInvalidLocus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dataset{Pedigree: ped, Loci: tt.loci}
			if _, _, err := d.Build(); !gerrors.Is(err, tt.code) {
				t.Errorf("Build() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"pedigree": [], "loci": [], "extra": 1}`))
	if !gerrors.Is(err, gerrors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestUpdateAndExport(t *testing.T) {
	d, err := ReadJSON(strings.NewReader(trioJSON))
	if err != nil {
		t.Fatal(err)
	}
	p, loci, err := d.Build()
	if err != nil {
		t.Fatal(err)
	}
	c, _ := p.Lookup("c")
	loci[0].Genotypes[c] = pedigree.Genotype{}
	if !d.Update(p, loci[0]) {
		t.Fatal("Update() did not find M1")
	}
	if _, ok := d.Locus("M1").Genotypes["c"]; ok {
		t.Error("blanked individual still has a genotype")
	}
	if got := d.Locus("M1").Genotypes["f"]; got != "10/2" {
		t.Errorf("f = %q, want 10/2", got)
	}

	path := filepath.Join(t.TempDir(), "out.toml")
	if err := Export(d, path); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	back, err := Import(path)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if got := len(back.Locus("M1").Genotypes); got != 2 {
		t.Errorf("re-imported M1 has %d genotypes, want 2", got)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"a": 1}); err != nil || !strings.Contains(buf.String(), `"a": 1`) {
		t.Errorf("WriteJSON() = %q, %v", buf.String(), err)
	}
}
