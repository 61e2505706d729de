package lockfile

import "strings"

// nodeModulesPrefix is how the package-lock "packages" container keys
// installed packages.
const nodeModulesPrefix = "node_modules/"

// ResolveDirect returns the concrete installed version of target, if the
// lockfile records one.
//
// For package-lock models the "packages" container is consulted first
// ("node_modules/<target>"), then the legacy "dependencies" container.
// For yarn-lock models the first block whose selector starts with
// "<target>@" wins; when several selectors for the same package resolve
// to different versions the earliest in document order is returned and
// the rest are ignored.
func (m *Model) ResolveDirect(target string) (string, bool) {
	switch m.Kind {
	case KindPackageLock:
		if e, ok := m.Packages.Get(nodeModulesPrefix + target); ok && e.Version != "" {
			return e.Version, true
		}
		if e, ok := m.Dependencies.Get(target); ok && e.Version != "" {
			return e.Version, true
		}
		return "", false

	case KindYarnLock:
		prefix := target + "@"
		for _, key := range m.Blocks.Keys() {
			if strings.HasPrefix(key, prefix) {
				if e, ok := m.Blocks.Get(key); ok && e.Version != "" {
					return e.Version, true
				}
			}
		}
		return "", false

	default:
		return "", false
	}
}

// Indirect is one lockfile entry that pulls in the target package as a
// transitive dependency.
type Indirect struct {
	// Parent is the lockfile key of the entry declaring the target
	// (e.g. "node_modules/some-plugin" or "some-plugin@^2.0.0").
	Parent string
	// Specified is the range the parent declares for the target.
	Specified string
	// Resolved is the target's own installed version, when the lockfile
	// records one; empty otherwise.
	Resolved string
}

// FindIndirect returns every lockfile entry that declares target in its
// dependency, devDependency or peerDependency map, in document order.
//
// The target's own resolved version is looked up once via ResolveDirect
// and reused across all matches. An empty result means no indirect
// reference exists; it does not indicate a parse or fetch failure.
//
// For package-lock models the root project entry (empty key) is skipped:
// its dependency map restates the manifest, which is the direct-path's
// territory.
func (m *Model) FindIndirect(target string) []Indirect {
	resolved, _ := m.ResolveDirect(target)

	var out []Indirect
	scan := func(es *Entries, skipRoot bool) {
		for _, key := range es.Keys() {
			if skipRoot && key == "" {
				continue
			}
			e, _ := es.Get(key)
			if rng, ok := e.declares(target); ok {
				out = append(out, Indirect{Parent: key, Specified: rng, Resolved: resolved})
			}
		}
	}

	switch m.Kind {
	case KindPackageLock:
		scan(m.Packages, true)
		scan(m.Dependencies, false)
	case KindYarnLock:
		scan(m.Blocks, false)
	}
	return out
}
