package track

import (
	"strings"

	"btwatch/pkg/utils"
)

// PrefixFilter suppresses tracking for devices whose MAC starts with a
// configured prefix. Matching is case-insensitive on the canonical
// colon-hex form.
type PrefixFilter struct {
	prefixes []string
}

// NewPrefixFilter creates a filter from the configured prefix strings.
func NewPrefixFilter(prefixes []string) *PrefixFilter {
	f := &PrefixFilter{}
	for _, p := range prefixes {
		if p = utils.NormalizePrefix(p); p != "" {
			f.prefixes = append(f.prefixes, p)
		}
	}
	return f
}

// Excluded reports whether the MAC matches any configured prefix. The MAC
// is expected in canonical form; it is uppercased here so callers with raw
// input still match correctly.
func (f *PrefixFilter) Excluded(mac string) bool {
	mac = strings.ToUpper(mac)
	for _, p := range f.prefixes {
		if strings.HasPrefix(mac, p) {
			return true
		}
	}
	return false
}
