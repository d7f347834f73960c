package pedigree

import (
	"errors"
	"fmt"
	"strings"
)

// None marks an absent parent, family or component reference.
const None = -1

var (
	// ErrDuplicateID is returned by [New] when two records share an identifier.
	ErrDuplicateID = errors.New("duplicate individual ID")

	// ErrUnknownParent is returned by [New] when a sire or dam identifier
	// does not name a record in the input.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrSingleParent is returned by [New] when a record names exactly one
	// parent. Individuals are either founders or have both parents.
	ErrSingleParent = errors.New("individual has only one parent")

	// ErrParentSex is returned by [New] when a sire is recorded as female or a
	// dam as male.
	ErrParentSex = errors.New("parent sex conflicts with role")

	// ErrSelfAncestor is returned by [New] when following parent links from an
	// individual leads back to it.
	ErrSelfAncestor = errors.New("individual is its own ancestor")
)

// Sex of an individual.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// String returns "M", "F" or "?".
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "M"
	case SexFemale:
		return "F"
	}
	return "?"
}

// ParseSex accepts the usual pedigree-file spellings: M/F, male/female, 1/2.
// Anything else, including the empty string and 0, is unknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "1":
		return SexMale
	case "f", "female", "2":
		return SexFemale
	}
	return SexUnknown
}

// Flags hold per-locus state of an individual.
type Flags uint16

const (
	// HasData is set when the individual has at least one observed allele.
	HasData Flags = 1 << iota
	// HasGenotype is set when both alleles are observed.
	HasGenotype
	// Pruned individuals carry no information for the locus.
	Pruned
	// Singleton individuals are unconnected to any active family.
	Singleton
	// Fixed individuals have exactly one possible ordered genotype.
	Fixed
	// Peeled individuals have been integrated out by a simple peel.
	Peeled
	// WasPivot individuals have had at least one family peeled onto them.
	WasPivot
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Stats counts genotype possibilities of an individual after elimination.
type Stats struct {
	Genotypes int `json:"genotypes"` // possible ordered genotypes
	Maternal  int `json:"maternal"`  // distinct possible maternal alleles
	Paternal  int `json:"paternal"`  // distinct possible paternal alleles
}

// Record is one input row of a pedigree file.
type Record struct {
	ID   string `json:"id" toml:"id"`
	Sire string `json:"sire,omitempty" toml:"sire"`
	Dam  string `json:"dam,omitempty" toml:"dam"`
	Sex  Sex    `json:"sex" toml:"sex"`
}

// Individual is a member of a pedigree.
type Individual struct {
	ID    string
	Index int
	Sex   Sex

	Sire, Dam int   // indices of the parents, None for founders
	Family    int   // family the individual is an offspring of, None for founders
	Families  []int // families the individual is a parent in
	Component int

	Flags Flags
	Stats Stats
}

// IsFounder reports whether the individual has no recorded parents.
func (ind *Individual) IsFounder() bool { return ind.Sire == None }

// Family is a sire/dam pair with their offspring in input order.
type Family struct {
	Index     int
	Sire, Dam int
	Kids      []int
	Component int

	// Active is cleared by pruning when the family carries no information.
	Active bool
}

// Members returns the sire, the dam and the offspring of the family.
func (f *Family) Members() []int {
	out := make([]int, 0, len(f.Kids)+2)
	out = append(out, f.Sire, f.Dam)
	return append(out, f.Kids...)
}

// Component is a maximal connected set of individuals.
type Component struct {
	Index    int
	Members  []int // ascending individual indices
	Families []int // ascending family indices
}

// Pedigree is an immutable set of individuals, families and components.
type Pedigree struct {
	Individuals []*Individual
	Families    []*Family
	Components  []*Component

	byID map[string]int
}

// Len returns the number of individuals.
func (p *Pedigree) Len() int { return len(p.Individuals) }

// Lookup returns the index of the individual with the given ID.
func (p *Pedigree) Lookup(id string) (int, bool) {
	i, ok := p.byID[id]
	return i, ok
}

// ID returns the identifier of individual i, or "0" for None.
func (p *Pedigree) ID(i int) string {
	if i == None {
		return "0"
	}
	return p.Individuals[i].ID
}

// ResetLocus clears all per-locus flags and statistics and marks every family
// active again.
func (p *Pedigree) ResetLocus() {
	for _, ind := range p.Individuals {
		ind.Flags = 0
		ind.Stats = Stats{}
	}
	for _, f := range p.Families {
		f.Active = true
	}
}

// FamilyString formats a family as "sire x dam -> kid, kid" for messages.
func (p *Pedigree) FamilyString(f int) string {
	fam := p.Families[f]
	kids := make([]string, len(fam.Kids))
	for i, k := range fam.Kids {
		kids[i] = p.ID(k)
	}
	return fmt.Sprintf("%s x %s -> %s", p.ID(fam.Sire), p.ID(fam.Dam), strings.Join(kids, ", "))
}

// MarshalText encodes the sex as "M", "F" or "?".
func (s Sex) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts any spelling understood by [ParseSex].
func (s *Sex) UnmarshalText(b []byte) error {
	*s = ParseSex(string(b))
	return nil
}
