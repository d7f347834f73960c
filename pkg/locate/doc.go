// Package locate isolates Mendelian inconsistencies at a locus.
//
// When genotype elimination reports a contradiction, [Locate] searches for
// a small set of observations whose removal restores consistency. Within
// each implicated family a single blanked member is preferred; the set is
// not guaranteed to be the smallest possible.
//
// The search is driven by a [Check], usually built with [Eliminator], and
// is cooperatively cancellable through its context.
package locate
