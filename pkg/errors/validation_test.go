package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "1001", false},
		{"with punctuation", "fam2_ind-3", false},
		{"empty", "", true},
		{"space", "a b", true},
		{"tab", "a\tb", true},
		{"too long", strings.Repeat("x", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPedigree) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidPedigree)
			}
		})
	}
}

func TestValidateLocusName(t *testing.T) {
	tests := []struct {
		name    string
		locus   string
		wantErr bool
	}{
		{"marker", "D1S243", false},
		{"dotted", "rs123.a", false},
		{"empty", "", true},
		{"slash", "chr1/m1", true},
		{"traversal", "..m", true},
		{"backslash", `a\b`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocusName(tt.locus)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLocusName(%q) error = %v, wantErr %v", tt.locus, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"out/result.json", false},
		{"", true},
		{"../etc/passwd", true},
		{"a\x00b", true},
	}
	for _, tt := range tests {
		if err := ValidatePath(tt.path); (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput, ErrCodeInvalidPedigree, ErrCodeInvalidLocus, ErrCodeInvalidFormat,
		ErrCodeInvalidPath, ErrCodeConfiguration, ErrCodeInconsistent, ErrCodeNotFound,
		ErrCodeStorage, ErrCodeCancelled, ErrCodeInternal, ErrCodeUnsupported,
	}
	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate error code %q", c)
		}
		seen[c] = true
	}
}
