// Package manifest parses package.json descriptors and locates direct
// declarations of a target dependency.
package manifest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tailscale/hujson"
)

// Filename is the package descriptor filename this package understands.
const Filename = "package.json"

// Object is the parsed representation of one package.json file.
// Immutable after parse; discarded at the end of a repository analysis.
type Object struct {
	// Path is the file's location within the repository tree.
	Path string
	// Name is the declared package name, if any.
	Name string
	// Dependencies maps runtime dependency name to declared range.
	Dependencies map[string]string
	// DevDependencies maps development dependency name to declared range.
	DevDependencies map[string]string
}

// Dir returns the directory containing the manifest, "" for the root.
func (o *Object) Dir() string {
	d := path.Dir(o.Path)
	if d == "." {
		return ""
	}
	return d
}

// Parse decodes raw package.json bytes found at treePath. Hand-edited
// manifests with comments or trailing commas are accepted.
func Parse(treePath string, raw []byte) (*Object, error) {
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", treePath, err)
	}

	var doc struct {
		Name            string            `json:"name"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", treePath, err)
	}

	return &Object{
		Path:            treePath,
		Name:            doc.Name,
		Dependencies:    doc.Dependencies,
		DevDependencies: doc.DevDependencies,
	}, nil
}

// IsManifestPath reports whether treePath is a package.json we should
// scan. Vendored copies under node_modules describe installed packages,
// not the repository's own declarations, and are excluded.
func IsManifestPath(treePath string) bool {
	if path.Base(treePath) != Filename {
		return false
	}
	return !strings.Contains(treePath, "node_modules/")
}

// Declaration is a direct dependency declaration found in one manifest.
type Declaration struct {
	// Path is the manifest's tree path.
	Path string
	// Range is the declared version or range, verbatim.
	Range string
	// Dev is true when the declaration came from devDependencies.
	Dev bool
}

// FindDirect scans manifests for direct declarations of target.
// Runtime dependencies are checked before development dependencies and
// the first hit wins per manifest; a package declared in both classes
// is reported once, as a runtime dependency.
func FindDirect(objects []*Object, target string) []Declaration {
	var found []Declaration
	for _, o := range objects {
		if rng, ok := o.Dependencies[target]; ok {
			found = append(found, Declaration{Path: o.Path, Range: rng})
			continue
		}
		if rng, ok := o.DevDependencies[target]; ok {
			found = append(found, Declaration{Path: o.Path, Range: rng, Dev: true})
		}
	}
	return found
}

// HasRangeOperator reports whether spec contains a semver range operator
// that requires lockfile disambiguation before the version can be
// treated as concrete.
func HasRangeOperator(spec string) bool {
	return strings.ContainsAny(spec, "^~*")
}

// IsConcrete reports whether spec is a single exact semantic version.
func IsConcrete(spec string) bool {
	_, err := semver.StrictNewVersion(strings.TrimSpace(spec))
	return err == nil
}
