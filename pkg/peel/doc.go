// Package peel compiles a peel sequence for one pedigree component at one
// locus.
//
// A peel sequence is a static program for a likelihood evaluator: an
// ordered list of [Op] values that integrate out the genes of the pedigree
// one group at a time. It carries no probabilities, only structure.
//
// Compilation runs in two passes after genotype elimination:
//
//   - The primary pass repeatedly peels a nuclear family in which at most
//     one member (the pivot) still belongs to another family. The family's
//     contribution is passed on to the pivot as an [RFunc]. When both
//     parents are still linked elsewhere and every child is fixed, the
//     family is peeled onto both parents separately.
//   - The joint pass orders the remaining genes with the min-degree
//     heuristic from package order and groups consecutive genes into
//     [Complex] operations, splitting groups whose joint allele index would
//     not fit in a machine word.
//
// Every R-function is produced once and consumed once. A sequence that
// leaves one unconsumed, or a complex operation involving more genes than
// [Options.MaxInvolved], is an [InternalError]: it signals a defect in the
// compiler, not in the data.
//
// Carriers outside every transmitting family (singletons with data, or
// fathers of sons only at an X-linked locus) are collected in a leading
// [Simple] operation with no family and no pivot.
package peel
