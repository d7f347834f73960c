package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// lociTable summarises every locus of a run, one row per locus.
func lociTable(res *pipeline.Result) string {
	rows := make([][]string, 0, len(res.Loci))
	for _, lr := range res.Loci {
		rows = append(rows, []string{
			lr.Locus,
			lr.Link.String(),
			locusStatus(lr),
			strconv.Itoa(len(lr.Components)),
			fmt.Sprintf("%d/%d", lr.Summary.Fixed, lr.Summary.Individuals),
			fmt.Sprintf("%.1f ± %.1f", lr.Summary.Mean, lr.Summary.StdDev),
			strconv.Itoa(lr.Summary.Ops),
			strconv.Itoa(lr.Summary.Complex),
			strconv.Itoa(lr.Summary.MaxInvolved),
		})
	}

	t := newTable("Locus", "Link", "Status", "Comp", "Fixed", "Genotypes", "Ops", "Complex", "Max genes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 2 && row < len(res.Loci) {
				return outcomeOf(res.Loci[row]).style()
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func locusStatus(lr *pipeline.LocusResult) string {
	switch outcomeOf(lr) {
	case outcomeFailed:
		return "failed"
	case outcomeBlanked:
		return fmt.Sprintf("blanked %d", len(lr.Diagnosis.Blanked))
	case outcomeInconsistent:
		return "inconsistent"
	case outcomeCleaned:
		return fmt.Sprintf("ok, %d deleted", len(lr.Deleted))
	}
	return "ok"
}

// possibilityTable lists the possible genotypes of the individuals of one
// component. Genotype lists longer than limit are shortened.
func possibilityTable(c *pipeline.ComponentResult, limit int) string {
	rows := make([][]string, 0, len(c.Possible))
	for _, p := range c.Possible {
		gts := p.Genotypes
		more := ""
		if limit > 0 && len(gts) > limit {
			more = fmt.Sprintf(" (+%d)", len(gts)-limit)
			gts = gts[:limit]
		}
		fixed := ""
		if p.Fixed {
			fixed = outcomeConsistent.icon()
		}
		rows = append(rows, []string{p.ID, p.Sex, fixed, strconv.Itoa(len(p.Genotypes)), strings.Join(gts, " ") + more})
	}
	return newTable("ID", "Sex", "Fixed", "N", "Genotypes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 2 {
				return StyleSuccess
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// writeSequence prints a peel sequence as numbered operations, naming
// individuals by ID.
func writeSequence(w io.Writer, p *pedigree.Pedigree, seq *peel.Sequence) {
	nSimple, nComplex := seq.Counts()
	fmt.Fprintf(w, "# locus %s component %d: %d alleles, %d bits, %d simple, %d complex, fill %d\n",
		seq.Locus, seq.Component, seq.Alleles, seq.Bits, nSimple, nComplex, seq.Fill)
	for k, op := range seq.Ops {
		fmt.Fprintf(w, "%3d  %s\n", k, opLine(p, op))
	}
	for _, rf := range seq.RFuncs {
		to := "result"
		if rf.Consumer >= 0 {
			to = fmt.Sprintf("op %d", rf.Consumer)
		}
		fmt.Fprintf(w, "     r%d  op %d -> %s  [%s]\n", rf.ID, rf.Producer, to, genes(p, rf.Genes))
	}
}

func opLine(p *pedigree.Pedigree, op peel.Op) string {
	if op.Kind == peel.KindComplex {
		c := op.Complex
		out := "result"
		if c.Output >= 0 {
			out = "r" + strconv.Itoa(c.Output)
		}
		return fmt.Sprintf("complex  peel [%s] keep [%s] in %s out %s",
			genes(p, c.Peeled()), genes(p, c.Retained()), rfList(c.Inputs), out)
	}
	s := op.Simple
	if s.Family < 0 {
		return fmt.Sprintf("singles  peel [%s] out %s", genes(p, s.Peeled), rfList(s.Outputs))
	}
	onto := s.PivotKind.String()
	if s.PivotKind != peel.PivotNone && s.PivotKind != peel.PivotParents {
		onto = fmt.Sprintf("%s %s", s.PivotKind, p.ID(s.Pivot))
	}
	return fmt.Sprintf("simple   %s onto %s peel [%s] in %s out %s",
		p.FamilyString(s.Family), onto, genes(p, s.Peeled), rfList(s.Inputs), rfList(s.Outputs))
}

func genes(p *pedigree.Pedigree, gs []peel.Gene) string {
	parts := make([]string, len(gs))
	for k, g := range gs {
		parts[k] = g.Label(p)
	}
	return strings.Join(parts, " ")
}

func rfList(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for k, id := range ids {
		parts[k] = "r" + strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
