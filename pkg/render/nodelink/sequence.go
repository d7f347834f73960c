package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
)

// SequenceDOT draws a peel sequence as a data-flow graph: one node per
// operation, one edge per R-function from its producer to its consumer,
// labelled with the R-function's genes.
func SequenceDOT(p *pedigree.Pedigree, seq *peel.Sequence) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", fmt.Sprintf("%s component %d (%d alleles)", seq.Locus, seq.Component, seq.Alleles))
	buf.WriteString("\n")

	for k, op := range seq.Ops {
		attrs := []string{fmt.Sprintf("label=%q", opLabel(p, op))}
		if op.Kind == peel.KindComplex {
			attrs = append(attrs, "fillcolor=\"#fde9c9\"")
		}
		fmt.Fprintf(&buf, "  op%d [%s];\n", k, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, rf := range seq.RFuncs {
		to := fmt.Sprintf("op%d", rf.Consumer)
		if rf.Consumer < 0 {
			to = fmt.Sprintf("out%d", rf.ID)
			fmt.Fprintf(&buf, "  %s [shape=plaintext, label=\"result\"];\n", to)
		}
		fmt.Fprintf(&buf, "  op%d -> %s [label=%q];\n", rf.Producer, to, geneList(p, rf.Genes))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func opLabel(p *pedigree.Pedigree, op peel.Op) string {
	if op.Kind == peel.KindComplex {
		c := op.Complex
		return fmt.Sprintf("complex\npeel %s\nkeep %s", geneList(p, c.Peeled()), geneList(p, c.Retained()))
	}
	s := op.Simple
	if s.Family < 0 {
		return "singletons\npeel " + geneList(p, s.Peeled)
	}
	target := "no pivot"
	switch s.PivotKind {
	case peel.PivotNone:
	case peel.PivotParents:
		target = "onto both parents"
	default:
		target = fmt.Sprintf("onto %s (%s)", p.ID(s.Pivot), s.PivotKind)
	}
	return fmt.Sprintf("%s\n%s\npeel %s", p.FamilyString(s.Family), target, geneList(p, s.Peeled))
}

func geneList(p *pedigree.Pedigree, genes []peel.Gene) string {
	if len(genes) == 0 {
		return "-"
	}
	parts := make([]string, len(genes))
	for k, g := range genes {
		parts[k] = g.Label(p)
	}
	return strings.Join(parts, " ")
}
