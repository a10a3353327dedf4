package zbridge

import (
	"path/filepath"
	"slices"
	"strings"
)

// Filter values from a slice
func Filter[T any](s []T, fn func(T) bool) []T {
	var r []T
	for _, t := range s {
		if fn(t) {
			r = append(r, t)
		}
	}
	return r
}

// CatalogFromManifest derives catalog flags from a manifest: the sources'
// directories become the allowed roots and the module names the required
// patterns.
func CatalogFromManifest(m *Manifest, mode string) CatalogFlags {
	var allowed, required []string
	defaults := make(map[string][]string)
	for mod, src := range m.Sources {
		dir := filepath.Dir(src)
		if !slices.Contains(allowed, dir) {
			allowed = append(allowed, dir)
		}

		// the catalog knows modules by their source slug, which may
		// differ from the manifest name
		slug := strings.TrimSuffix(filepath.Base(src), Z_EXT)
		required = append(required, slug)
		if opts := m.Options[mod]; len(opts) > 0 {
			defaults[slug] = opts
		}
	}

	return CatalogFlags{
		Allowed:  allowed,
		Required: required,
		Defaults: defaults,
		Mode:     mode,
	}
}
