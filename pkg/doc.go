// Package pkg provides the core libraries of genelim, a genotype elimination
// and peel-sequence compiler for pedigree data.
//
// # Overview
//
// genelim reads a pedigree and the marker genotypes typed on it, removes
// every genotype that cannot be inherited under Mendelian transmission, and
// compiles the order in which a likelihood evaluator should sum over the
// individuals of each connected component. The pkg directory is organized
// into three areas:
//
//  1. Domain logic ([pedigree], [elim], [prune], [recode], [peel], [locate])
//  2. Infrastructure ([cache], [store], [observability], [errors])
//  3. Orchestration and output ([pipeline], [io], [render])
//
// # Architecture
//
// The data flow for one locus:
//
//	Dataset (JSON or TOML)
//	         ↓
//	    [io] package (records → pedigree, genotype strings → codes)
//	         ↓
//	    [prune] package (drop uninformative individuals)
//	         ↓
//	    [recode] package (collapse unobserved alleles)
//	         ↓
//	    [elim] package (genotype elimination, to a fixpoint)
//	         ↓
//	    [peel] package (peel sequence + R-functions)
//
// An inconsistent locus stops at [elim]. With diagnosis enabled, [locate]
// finds the smallest set of observations whose removal restores consistency
// and the result is kept by a [store].
//
// # Quick Start
//
//	import (
//	    "context"
//	    "fmt"
//	    "github.com/matzehuels/genelim/pkg/io"
//	    "github.com/matzehuels/genelim/pkg/cache"
//	    "github.com/matzehuels/genelim/pkg/pipeline"
//	)
//
//	ds, _ := io.Import("family.toml")
//	r := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := r.Run(context.Background(), ds, pipeline.Options{})
//	for _, lr := range res.Loci {
//	    fmt.Println(lr.Locus, lr.Consistent)
//	}
//
// Run returns the loci finished before an error together with the error,
// so a caller can report partial work.
//
// # Main Packages
//
// [pedigree] - Individuals, nuclear families, connected components and loci.
// Genotypes are ordered allele-code pairs; 0 means untyped.
//
// [alleleset] - Bitsets over allele codes used by elimination and recoding.
//
// [order] - Minimum-degree elimination orderings over an interaction graph,
// used to schedule complex peel operations.
//
// [elim] - The per-component genotype table and the family-by-family
// elimination pass. Autosomal, X-linked and Y-linked transmission.
//
// [prune] - Removal of untyped individuals that carry no information.
//
// [recode] - Per-component allele recoding with an optional lump allele.
//
// [peel] - Compilation of simple (nuclear family) and complex (joint)
// peel operations into a [peel.Sequence].
//
// [locate] - Search for the observations behind an inconsistency, first by
// single blanks, then greedily.
//
// [pipeline] - Runs every stage for each selected locus and caches results.
//
// [cache] - File, Redis and null caches with zstd compression and retry.
//
// [store] - Diagnosis persistence in error files, SQLite or MongoDB.
//
// [render] - Graphviz drawings of pedigrees and peel sequences.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/elim/...               # Specific package
//	CGO_ENABLED=0 go test ./pkg/store/... # Pure-Go SQLite driver
//
// [pedigree]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/pedigree
// [alleleset]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/alleleset
// [order]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/order
// [elim]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/elim
// [prune]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/prune
// [recode]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/recode
// [peel]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/peel
// [peel.Sequence]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/peel#Sequence
// [locate]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/locate
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/errors
// [render]: https://pkg.go.dev/github.com/matzehuels/genelim/pkg/render
package pkg
