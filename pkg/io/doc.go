// Package io reads and writes genelim datasets.
//
// A dataset is a pedigree plus any number of loci. It can be written as
// JSON:
//
//	{
//	  "name": "family-12",
//	  "pedigree": [
//	    {"id": "f", "sex": "M"},
//	    {"id": "m", "sex": "F"},
//	    {"id": "c", "sire": "f", "dam": "m", "sex": "F"}
//	  ],
//	  "loci": [
//	    {"name": "D1S243", "link": "autosomal",
//	     "genotypes": {"f": "1/2", "m": "2/2", "c": "1/2"}}
//	  ]
//	}
//
// or as the equivalent TOML, with [[pedigree]] and [[loci]] tables.
//
// Genotypes are written "a/b" using allele labels; "0", "?" and the empty
// string mark a missing allele and a lone label is a single observed
// allele. When a locus does not list its alleles, the labels seen in its
// genotypes are used, in numeric order when all of them are integers and
// lexical order otherwise.
//
// [Import] dispatches on the file extension. [WriteJSON] encodes any
// result value with the indentation used throughout the CLI.
package io
