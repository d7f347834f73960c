package peel

import (
	"errors"
	"fmt"

	"github.com/matzehuels/genelim/pkg/pedigree"
)

var (
	// ErrUnusedRFunc is reported when compilation ends with an R-function
	// that no operation consumed.
	ErrUnusedRFunc = errors.New("unused R-function")

	// ErrCliqueBound is reported when a joint operation involves more genes
	// than [Options.MaxInvolved] allows.
	ErrCliqueBound = errors.New("peel operation exceeds clique bound")

	// ErrConsumed is reported when an R-function would be consumed twice.
	ErrConsumed = errors.New("R-function already consumed")

	// ErrSlotFull is reported when a pivot would hold two live R-functions.
	ErrSlotFull = errors.New("pivot already holds an R-function")

	// ErrMissingGene is reported when an operation references a gene that is
	// not part of the elimination graph.
	ErrMissingGene = errors.New("gene not in elimination graph")
)

// InternalError reports a defect in the compiler rather than in the data.
type InternalError struct {
	Phase string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("peel: internal error in %s: %v", e.Phase, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// PivotKind describes where a simple operation sends its result.
type PivotKind int

const (
	// PivotNone peels the whole family; nothing is passed on.
	PivotNone PivotKind = iota
	PivotSire
	PivotDam
	PivotKid
	// PivotParents passes one R-function to each parent separately.
	PivotParents
)

var pivotNames = [...]string{"none", "sire", "dam", "kid", "parents"}

func (k PivotKind) String() string {
	if k >= 0 && int(k) < len(pivotNames) {
		return pivotNames[k]
	}
	return fmt.Sprintf("PivotKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k PivotKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *PivotKind) UnmarshalText(b []byte) error {
	for i, name := range pivotNames {
		if name == string(b) {
			*k = PivotKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pivot kind %q", b)
}

// Kind tags an [Op].
type Kind int

const (
	KindSimple Kind = iota
	KindComplex
)

func (k Kind) String() string {
	if k == KindComplex {
		return "complex"
	}
	return "simple"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes "simple" or "complex".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "simple":
		*k = KindSimple
	case "complex":
		*k = KindComplex
	default:
		return fmt.Errorf("unknown op kind %q", b)
	}
	return nil
}

// Simple peels one nuclear family onto at most one pivot (or onto both
// parents separately). The leading operation of a sequence may be a
// Simple with no family and no parents, holding unlinked individuals.
type Simple struct {
	Family    int       `json:"family"`
	Sire      int       `json:"sire"`
	Dam       int       `json:"dam"`
	Kids      []int     `json:"kids"`
	Pivot     int       `json:"pivot"`
	PivotKind PivotKind `json:"pivot_kind"`
	Inputs    []int     `json:"inputs,omitempty"`
	Outputs   []int     `json:"outputs,omitempty"`
	Peeled    []Gene    `json:"peeled"`
}

// GeneFlags annotate the involved genes of a [Complex] operation.
type GeneFlags uint8

const (
	// FromParent marks a gene whose transmission from its parent is
	// evaluated in this operation.
	FromParent GeneFlags = 1 << iota
	// InRFunc marks a gene that appears in at least one input R-function.
	InRFunc
	// Joint marks both copies of an individual that are involved together
	// without an input R-function already covering the pair.
	Joint
)

// Complex peels Involved[:NPeel] jointly, keeping Involved[NPeel:] in the
// output R-function.
type Complex struct {
	Involved []Gene      `json:"involved"`
	NPeel    int         `json:"n_peel"`
	Flags    []GeneFlags `json:"flags"`
	Inputs   []int       `json:"inputs,omitempty"`
	// InputPos[k][j] is the position in Involved of gene j of input k.
	InputPos [][]int `json:"input_pos,omitempty"`
	Output   int     `json:"output"`
}

// Peeled returns the genes eliminated by the operation.
func (c *Complex) Peeled() []Gene { return c.Involved[:c.NPeel] }

// Retained returns the genes passed on to the output R-function.
func (c *Complex) Retained() []Gene { return c.Involved[c.NPeel:] }

// Op is one step of a compiled peel sequence. Exactly one of Simple and
// Complex is set, according to Kind.
type Op struct {
	Kind    Kind     `json:"kind"`
	Simple  *Simple  `json:"simple,omitempty"`
	Complex *Complex `json:"complex,omitempty"`
}

// Peeled returns the genes eliminated by the operation.
func (o Op) Peeled() []Gene {
	if o.Kind == KindComplex {
		return o.Complex.Peeled()
	}
	return o.Simple.Peeled
}

// Inputs returns the IDs of the R-functions the operation consumes.
func (o Op) Inputs() []int {
	if o.Kind == KindComplex {
		return o.Complex.Inputs
	}
	return o.Simple.Inputs
}

// Sequence is the compiled peel program of one component at one locus.
type Sequence struct {
	Locus     string            `json:"locus"`
	Component int               `json:"component"`
	Link      pedigree.LinkType `json:"link"`
	Alleles   int               `json:"alleles"`
	Bits      int               `json:"bits"`

	Ops    []Op     `json:"ops"`
	RFuncs []*RFunc `json:"rfuncs"`

	// Order is the elimination order used for the joint pass.
	Order []Gene `json:"order,omitempty"`
	// Fill counts the edges added by the min-degree ordering.
	Fill int `json:"fill"`
}

// Peeled returns every gene peeled by the sequence in operation order.
func (s *Sequence) Peeled() []Gene {
	var out []Gene
	for _, op := range s.Ops {
		out = append(out, op.Peeled()...)
	}
	return out
}

// Counts returns the number of simple and complex operations.
func (s *Sequence) Counts() (nSimple, nComplex int) {
	for _, op := range s.Ops {
		if op.Kind == KindComplex {
			nComplex++
		} else {
			nSimple++
		}
	}
	return nSimple, nComplex
}

// MaxInvolved returns the largest number of genes involved in one complex
// operation.
func (s *Sequence) MaxInvolved() int {
	n := 0
	for _, op := range s.Ops {
		if op.Kind == KindComplex {
			n = max(n, len(op.Complex.Involved))
		}
	}
	return n
}
