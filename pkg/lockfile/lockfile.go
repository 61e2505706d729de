// Package lockfile parses JavaScript package-manager lockfiles into a
// normalized, format-tagged model and answers version questions about a
// single target package.
//
// Two formats are supported: npm's package-lock.json (including the
// legacy "dependencies" container and npm-shrinkwrap.json, which shares
// the format) and Yarn's yarn.lock (both the classic flat block format
// and the YAML-based berry format).
//
// Entries are kept in document order so that repeated parses of the same
// bytes yield identical extraction results.
package lockfile

import "errors"

// ErrMalformed is returned when lockfile content cannot be parsed in any
// sub-format of the requested kind. Callers treat this as "no lockfile
// data available" rather than a fatal condition.
var ErrMalformed = errors.New("malformed lockfile")

// Kind identifies the lockfile format of a parsed Model.
type Kind int

const (
	// KindPackageLock is npm's package-lock.json / npm-shrinkwrap.json.
	KindPackageLock Kind = iota
	// KindYarnLock is Yarn's yarn.lock (classic or berry).
	KindYarnLock
)

// String returns the canonical filename-ish name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPackageLock:
		return "package-lock"
	case KindYarnLock:
		return "yarn-lock"
	default:
		return "unknown"
	}
}

// DetectKind maps a lockfile basename to its Kind.
// Returns ok=false for filenames that are not a supported lockfile.
func DetectKind(filename string) (Kind, bool) {
	switch filename {
	case "package-lock.json", "npm-shrinkwrap.json":
		return KindPackageLock, true
	case "yarn.lock":
		return KindYarnLock, true
	default:
		return 0, false
	}
}

// Entry is a single package record within a lockfile.
type Entry struct {
	// Version is the concrete resolved version, if recorded.
	Version string
	// Dependencies maps dependency name to its declared range.
	// For legacy package-lock entries this is populated from "requires".
	Dependencies map[string]string
	// DevDependencies maps devDependency name to declared range.
	DevDependencies map[string]string
	// PeerDependencies maps peerDependency name to declared range.
	PeerDependencies map[string]string
}

// declares reports whether the entry references name in any of its
// dependency maps, returning the declared range.
func (e *Entry) declares(name string) (string, bool) {
	if r, ok := e.Dependencies[name]; ok {
		return r, true
	}
	if r, ok := e.DevDependencies[name]; ok {
		return r, true
	}
	if r, ok := e.PeerDependencies[name]; ok {
		return r, true
	}
	return "", false
}

// Entries is an insertion-ordered collection of lockfile entries.
type Entries struct {
	keys []string
	m    map[string]*Entry
}

// NewEntries creates an empty ordered entry collection.
func NewEntries() *Entries {
	return &Entries{m: make(map[string]*Entry)}
}

// Set stores an entry under key, appending the key on first insertion.
func (es *Entries) Set(key string, e *Entry) {
	if _, exists := es.m[key]; !exists {
		es.keys = append(es.keys, key)
	}
	es.m[key] = e
}

// Get returns the entry stored under key.
func (es *Entries) Get(key string) (*Entry, bool) {
	if es == nil {
		return nil, false
	}
	e, ok := es.m[key]
	return e, ok
}

// Keys returns the keys in document order.
func (es *Entries) Keys() []string {
	if es == nil {
		return nil
	}
	return es.keys
}

// Len returns the number of stored entries.
func (es *Entries) Len() int {
	if es == nil {
		return 0
	}
	return len(es.keys)
}

// Model is the normalized in-memory form of a parsed lockfile.
//
// For KindPackageLock the two root containers are preserved without
// merging: Packages is keyed by "node_modules/<name>" paths (the empty
// key is the root project itself) and Dependencies is the legacy
// container keyed by bare package name. Lookups must try both.
//
// For KindYarnLock, Blocks is keyed by "<name>@<range>" selectors; a
// block listing several selectors appears once per selector.
type Model struct {
	Kind Kind

	Packages     *Entries // package-lock "packages" container
	Dependencies *Entries // package-lock legacy "dependencies" container

	Blocks *Entries // yarn-lock selector blocks
}
