// Package pedigree models individuals, nuclear families and connected
// components of a pedigree, together with the per-locus state that the
// pruning, elimination and peeling passes attach to individuals.
//
// # Structure
//
// A [Pedigree] is built once from a list of [Record] values with [New]. The
// builder validates parent links, groups offspring into [Family] values keyed
// by their (sire, dam) pair and labels connected [Component] values. The
// structure is immutable afterwards: later passes only toggle
// [Family.Active] and the per-locus [Flags] and [Stats] on individuals.
//
// # Per-locus state
//
// Every locus pass starts with [Pedigree.ResetLocus], which clears flags,
// statistics and family activity. Passes run one locus and one component at
// a time; nothing in this package is safe for concurrent mutation.
//
// # Loci
//
// A [Locus] pairs a [LinkType] with one [Genotype] per individual. Allele
// codes are 1-based indices into [Locus.Alleles]; 0 means unobserved.
package pedigree
