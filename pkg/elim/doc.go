// Package elim implements genotype elimination over nuclear families.
//
// A [Table] holds, for every member of one component and every allele a,
// the set of alleles b such that the ordered genotype (maternal a,
// paternal b) is still possible. Sex-linked loci reuse the same layout:
// an X-linked male has a single maternal copy recorded in bit 0 of the row
// of that allele, and a Y-linked male has its paternal copies in row 0.
//
// [NewTable] initialises the table from observed genotypes and
// [Table.Propagate] runs the family worklist to a fixpoint. Each family step
// keeps exactly the parental genotypes that are compatible with every
// offspring, and the offspring genotypes that some compatible parental pair
// can transmit. Sets only ever shrink, so the fixpoint is reached in a
// bounded number of steps and does not depend on the worklist order.
//
// A failed family is reported as an [*InconsistencyError] naming the family.
package elim
