// Package cache stores pipeline results keyed by dataset content and
// options.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server and [NullCache] when caching is disabled. Any of them
// can be wrapped with [NewCompressed] to store zstd-compressed payloads.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as hit=false with a
	// nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default expiry of cached entries.
const (
	TTLLocus     = 7 * 24 * time.Hour
	TTLDiagnosis = 24 * time.Hour
)

// LocusKeyOpts are the options that change a per-locus result.
type LocusKeyOpts struct {
	Link             string `json:"link"`
	Prune            bool   `json:"prune"`
	Recode           bool   `json:"recode"`
	ExtraAllele      bool   `json:"extra_allele"`
	PrimaryPeel      bool   `json:"primary_peel"`
	PivotBothParents bool   `json:"pivot_both_parents"`
	WordBits         int    `json:"word_bits"`
	MaxInvolved      int    `json:"max_involved"`
	Diagnose         bool   `json:"diagnose"`
	Report           bool   `json:"report"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LocusKey identifies the result of one locus of a dataset.
	LocusKey(datasetHash, locus string, opts LocusKeyOpts) string
	// DiagnosisKey identifies a stored locator result.
	DiagnosisKey(datasetHash, locus string) string
}

// DefaultKeyer produces "locus:<sha256>" and "diagnosis:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LocusKey(datasetHash, locus string, opts LocusKeyOpts) string {
	return hashKey("locus", datasetHash, locus, opts)
}

func (DefaultKeyer) DiagnosisKey(datasetHash, locus string) string {
	return hashKey("diagnosis", datasetHash, locus)
}
