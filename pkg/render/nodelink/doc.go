// Package nodelink renders pedigrees and peel sequences as Graphviz
// node-link diagrams.
//
// # Pedigrees
//
// [PedigreeDOT] draws one node per individual, shaped by sex, and one small
// mating node per family. [Options] colours the individuals blanked by the
// inconsistency locator, fades pruned ones and draws the inconsistent
// families in red:
//
//	dot := nodelink.PedigreeDOT(p, nodelink.Options{
//	    Blanked:      []string{"c"},
//	    Inconsistent: []int{0},
//	})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Peel sequences
//
// [SequenceDOT] draws the operations of a compiled sequence and the
// R-functions passed between them.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
