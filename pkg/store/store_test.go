package store

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/locate"
)

var suspects = []locate.Suspect{
	{ID: "c", Sire: "f", Dam: "m"},
	{ID: "f", Sire: "f", Dam: "m"},
}

func TestReadErrorFile(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []locate.Suspect
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"lines", "c f m\n\n# comment\n  f  f  m  \n", suspects, false},
		{"short line", "c f\n", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadErrorFile(strings.NewReader(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteErrorFile(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteErrorFile(&buf, suspects); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "c f m\nf f m\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	d, err := s.Load(ctx, "trio", "M1")
	if err != nil || d != nil {
		t.Fatalf("Load() on empty store = %v, %v", d, err)
	}

	first := &Diagnosis{
		RunID: uuid.NewString(), Dataset: "trio", Locus: "M1",
		Suspects: suspects[:1], Typed: 3, Checks: 6, Version: "test",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	second := *first
	second.RunID = uuid.NewString()
	second.Suspects = suspects
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	for _, d := range []*Diagnosis{first, &second} {
		if err := s.Save(ctx, d); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	got, err := s.Load(ctx, "trio", "M1")
	if err != nil || got == nil {
		t.Fatalf("Load() = %v, %v", got, err)
	}
	if !slices.Equal(got.Suspects, suspects) {
		t.Errorf("Load() suspects = %v, want latest %v", got.Suspects, suspects)
	}
	if d, _ := s.Load(ctx, "trio", "M2"); d != nil {
		t.Errorf("Load(M2) = %v, want nil", d)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)

	ctx := context.Background()
	if err := s.Save(ctx, &Diagnosis{Locus: "M1"}); err != nil {
		t.Fatalf("Save(empty) error: %v", err)
	}
	if d, _ := s.Load(ctx, "trio", "M1"); d != nil {
		t.Errorf("error file survived an empty diagnosis: %v", d)
	}
	if err := s.Save(ctx, &Diagnosis{Locus: "../x", Suspects: suspects}); !gerrors.Is(err, gerrors.ErrCodeInvalidLocus) {
		t.Errorf("Save(../x) error = %v, want INVALID_LOCUS", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "diag.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	hist, err := s.History(ctx, "trio")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(hist) != 2 || hist[0].CreatedAt.Before(hist[1].CreatedAt) {
		t.Errorf("History() = %+v, want 2 entries newest first", hist)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{"none", Config{}, true, false},
		{"file", Config{Backend: BackendFile, Dir: t.TempDir()}, false, false},
		{"file without dir", Config{Backend: BackendFile}, true, true},
		{"sqlite without dsn", Config{Backend: BackendSQLite}, true, true},
		{"mongo without uri", Config{Backend: BackendMongo}, true, true},
		{"unknown", Config{Backend: "s3"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if (s == nil) != tt.wantNil {
				t.Errorf("store = %v, wantNil %v", s, tt.wantNil)
			}
		})
	}
}

func TestNewDiagnosis(t *testing.T) {
	res := &locate.Result{
		Locus:   "M1",
		Typed:   3,
		Checks:  6,
		Blanked: []locate.Blank{{ID: "c", Sire: "f", Dam: "m"}},
	}
	d := NewDiagnosis(uuid.Nil, "trio", res, "v1")
	if _, err := uuid.Parse(d.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID", d.RunID)
	}
	if d.Locus != "M1" || len(d.Suspects) != 1 || d.Suspects[0].ID != "c" {
		t.Errorf("NewDiagnosis() = %+v", d)
	}
}
