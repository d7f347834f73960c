// Package render draws pedigrees and peel sequences.
//
// The [nodelink] subpackage produces Graphviz diagrams: a pedigree with the
// individuals of a locus coloured by their state (blanked, pruned, fixed)
// and the inconsistent families highlighted, and the data flow of a
// compiled peel sequence. This package converts the SVG output to other
// formats.
//
//	dot := nodelink.PedigreeDOT(p, nodelink.Options{Blanked: []string{"c"}})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/genelim/pkg/render/nodelink
package render
