package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/render"
)

// Options configures pedigree rendering. Individuals are named by ID.
type Options struct {
	// Title is drawn above the diagram.
	Title string
	// Labels adds a second line to an individual's label, typically its
	// observed or possible genotypes.
	Labels map[string]string
	// Blanked individuals are filled red.
	Blanked []string
	// Pruned individuals are drawn dashed and grey.
	Pruned []string
	// Fixed individuals are drawn with a bold outline.
	Fixed []string
	// Inconsistent families are drawn in red.
	Inconsistent []int
}

const (
	colorBlanked = "#f4a6a6"
	colorPruned  = "lightgrey"
	colorAlert   = "#c0392b"
)

// PedigreeDOT converts a pedigree to Graphviz DOT. Every family becomes a
// small mating node between the parents and the offspring; males are boxes,
// females ellipses and individuals of unknown sex diamonds.
func PedigreeDOT(p *pedigree.Pedigree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, ind := range p.Individuals {
		fmt.Fprintf(&buf, "  %q [%s];\n", ind.ID, strings.Join(individualAttrs(ind, opts), ", "))
	}

	buf.WriteString("\n")
	for _, fam := range p.Families {
		node := fmt.Sprintf("fam%d", fam.Index)
		color := ""
		if slices.Contains(opts.Inconsistent, fam.Index) {
			color = fmt.Sprintf(", color=%q, penwidth=2", colorAlert)
		}
		fmt.Fprintf(&buf, "  %q [shape=point, width=0.08%s];\n", node, color)
		fmt.Fprintf(&buf, "  %q -> %q [dir=none%s];\n", p.ID(fam.Sire), node, color)
		fmt.Fprintf(&buf, "  %q -> %q [dir=none%s];\n", p.ID(fam.Dam), node, color)
		fmt.Fprintf(&buf, "  { rank=same; %q; %q; }\n", p.ID(fam.Sire), p.ID(fam.Dam))
		for _, k := range fam.Kids {
			fmt.Fprintf(&buf, "  %q -> %q [dir=none%s];\n", node, p.ID(k), color)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func individualAttrs(ind *pedigree.Individual, opts Options) []string {
	label := ind.ID
	if extra, ok := opts.Labels[ind.ID]; ok && extra != "" {
		label += "\n" + extra
	}
	attrs := []string{fmt.Sprintf("label=%q", label), "shape=" + shape(ind.Sex)}
	switch {
	case slices.Contains(opts.Blanked, ind.ID):
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", colorBlanked))
	case slices.Contains(opts.Pruned, ind.ID):
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor="+colorPruned, "fontcolor=dimgrey")
	}
	if slices.Contains(opts.Fixed, ind.ID) {
		attrs = append(attrs, "penwidth=2.5")
	}
	return attrs
}

func shape(s pedigree.Sex) string {
	switch s {
	case pedigree.SexMale:
		return "box"
	case pedigree.SexFemale:
		return "ellipse"
	}
	return "diamond"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Render converts DOT to the requested format: the DOT source itself, SVG,
// PDF or PNG. PDF and PNG need librsvg.
func Render(dot, format string, scale float64) ([]byte, error) {
	if err := render.ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == render.FormatDOT {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case render.FormatPDF:
		return render.ToPDF(svg)
	case render.FormatPNG:
		return render.ToPNG(svg, scale)
	}
	return svg, nil
}
