package alleleset

import (
	"reflect"
	"testing"
)

func TestFull(t *testing.T) {
	tests := []struct {
		n    int
		want Set
	}{
		{0, 0},
		{1, 1},
		{3, 7},
		{64, ^Set(0)},
	}
	for _, tt := range tests {
		if got := Full(tt.n); got != tt.want {
			t.Errorf("Full(%d) = %b, want %b", tt.n, got, tt.want)
		}
	}
}

func TestFullPanicsBeyondWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Full(65) did not panic")
		}
	}()
	Full(65)
}

func TestSetOps(t *testing.T) {
	a := Of(0, 2, 5)
	b := Of(2, 3)

	if !a.Has(5) || a.Has(1) {
		t.Errorf("Has mismatch for %v", a)
	}
	if got := a.Intersect(b); got != Of(2) {
		t.Errorf("Intersect = %v, want {3}", got)
	}
	if got := a.Union(b); got != Of(0, 2, 3, 5) {
		t.Errorf("Union = %v", got)
	}
	if !a.Meets(b) || a.Meets(Of(1)) {
		t.Error("Meets mismatch")
	}
	if !Of(2).SubsetOf(a) || b.SubsetOf(a) {
		t.Error("SubsetOf mismatch")
	}
	if got := a.Remove(0).Min(); got != 2 {
		t.Errorf("Min = %d, want 2", got)
	}
	if Set(0).Min() != -1 {
		t.Error("Min of empty set should be -1")
	}
	if got := a.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	if got := a.Slice(); !reflect.DeepEqual(got, []int{0, 2, 5}) {
		t.Errorf("Slice = %v", got)
	}
	if got := a.String(); got != "{1,3,6}" {
		t.Errorf("String = %q", got)
	}
}

func TestWidth(t *testing.T) {
	tests := []struct{ n, want int }{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {64, 6},
	}
	for _, tt := range tests {
		if got := Width(tt.n); got != tt.want {
			t.Errorf("Width(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
