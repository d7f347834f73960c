package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// frontends can share one backend without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LocusKey(datasetHash, locus string, opts LocusKeyOpts) string {
	return k.prefix + k.inner.LocusKey(datasetHash, locus, opts)
}

func (k *ScopedKeyer) DiagnosisKey(datasetHash, locus string) string {
	return k.prefix + k.inner.DiagnosisKey(datasetHash, locus)
}
