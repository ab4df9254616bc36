package manifest

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// compareOpts treats nil and empty maps and slices as equal. Map key order
// is irrelevant by construction; slice order is significant.
var compareOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
}

// Equivalent reports whether two manifests describe the same deployment.
func Equivalent(a, b *Manifest) bool {
	return cmp.Equal(a, b, compareOpts...)
}

// Diff returns a human-readable diff from a to b, or "" if they are equivalent.
func Diff(a, b *Manifest) string {
	return cmp.Diff(a, b, compareOpts...)
}
