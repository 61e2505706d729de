package analysis

import "github.com/frontscan/frontscan/pkg/manifest"

// Prototype classification defaults. Both are configurable; the marker
// file identifies legacy prototype-kit instances that predate the kit
// being a manifest dependency.
const (
	DefaultPrototypeMarker  = "lib/usage_data.js"
	DefaultPrototypePackage = "govuk-prototype-kit"
)

// treeIndex supports existence checks over a repository file listing.
type treeIndex map[string]struct{}

func newTreeIndex(paths []string) treeIndex {
	idx := make(treeIndex, len(paths))
	for _, p := range paths {
		idx[p] = struct{}{}
	}
	return idx
}

func (t treeIndex) has(path string) bool {
	_, ok := t[path]
	return ok
}

// isPrototype reports whether the repository is a disposable prototype
// instance. The marker-file check short-circuits before manifests are
// inspected; it is the cheaper and more reliable signal for legacy
// instances.
func isPrototype(tree treeIndex, manifests []*manifest.Object, markerPath, kitPackage string) bool {
	if tree.has(markerPath) {
		return true
	}
	for _, m := range manifests {
		if _, ok := m.Dependencies[kitPackage]; ok {
			return true
		}
	}
	return false
}
