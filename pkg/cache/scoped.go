package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// cache backend.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:webshop:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ImageKey generates a prefixed image key.
func (k *ScopedKeyer) ImageKey(fingerprint, sourceHash, format string) string {
	return k.prefix + k.inner.ImageKey(fingerprint, sourceHash, format)
}

// MetadataKey generates a prefixed metadata key.
func (k *ScopedKeyer) MetadataKey(fingerprint, format, optsHash string) string {
	return k.prefix + k.inner.MetadataKey(fingerprint, format, optsHash)
}
