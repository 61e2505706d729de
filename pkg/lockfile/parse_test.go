package lockfile

import (
	"errors"
	"reflect"
	"testing"
)

const packageLockModern = `{
  "name": "service-frontend",
  "lockfileVersion": 3,
  "packages": {
    "": {
      "name": "service-frontend",
      "dependencies": {
        "govuk-frontend": "^4.0.0"
      }
    },
    "node_modules/govuk-frontend": {
      "version": "4.7.0",
      "resolved": "https://registry.npmjs.org/govuk-frontend/-/govuk-frontend-4.7.0.tgz"
    },
    "node_modules/some-plugin": {
      "version": "2.1.0",
      "dependencies": {
        "govuk-frontend": "^4.5.0"
      }
    }
  }
}`

const packageLockLegacy = `{
  "name": "older-service",
  "lockfileVersion": 1,
  "dependencies": {
    "govuk-frontend": {
      "version": "3.14.0",
      "resolved": "https://registry.npmjs.org/govuk-frontend/-/govuk-frontend-3.14.0.tgz"
    },
    "some-plugin": {
      "version": "1.0.0",
      "requires": {
        "govuk-frontend": "^3.0.0"
      },
      "dependencies": {
        "nested-thing": {
          "version": "0.1.0"
        }
      }
    }
  }
}`

const yarnClassic = `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"govuk-frontend@^4.0.0", "govuk-frontend@^4.5.0":
  version "4.7.0"
  resolved "https://registry.yarnpkg.com/govuk-frontend/-/govuk-frontend-4.7.0.tgz"

some-plugin@^2.0.0:
  version "2.1.0"
  dependencies:
    govuk-frontend "^4.5.0"
`

const yarnBerry = `# This file is generated by running "yarn install" inside your project.

__metadata:
  version: 6
  cacheKey: 8

"govuk-frontend@npm:^5.0.0":
  version: 5.1.0
  resolution: "govuk-frontend@npm:5.1.0"

"some-plugin@npm:^3.0.0":
  version: 3.2.0
  dependencies:
    govuk-frontend: "npm:^5.0.0"
`

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
		ok       bool
	}{
		{"package-lock.json", KindPackageLock, true},
		{"npm-shrinkwrap.json", KindPackageLock, true},
		{"yarn.lock", KindYarnLock, true},
		{"package.json", 0, false},
		{"Gemfile.lock", 0, false},
	}

	for _, tt := range tests {
		got, ok := DetectKind(tt.filename)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("DetectKind(%q) = %v, %v; want %v, %v", tt.filename, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePackageLockModern(t *testing.T) {
	m, err := Parse([]byte(packageLockModern), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	v, ok := m.ResolveDirect("govuk-frontend")
	if !ok || v != "4.7.0" {
		t.Errorf("ResolveDirect() = %q, %v; want %q, true", v, ok, "4.7.0")
	}

	e, ok := m.Packages.Get("node_modules/some-plugin")
	if !ok {
		t.Fatal("expected some-plugin entry")
	}
	if e.Dependencies["govuk-frontend"] != "^4.5.0" {
		t.Errorf("plugin dependency range = %q, want ^4.5.0", e.Dependencies["govuk-frontend"])
	}
}

func TestParsePackageLockLegacy(t *testing.T) {
	m, err := Parse([]byte(packageLockLegacy), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	v, ok := m.ResolveDirect("govuk-frontend")
	if !ok || v != "3.14.0" {
		t.Errorf("ResolveDirect() = %q, %v; want %q, true", v, ok, "3.14.0")
	}

	// Legacy "requires" populates Dependencies; nested objects are skipped.
	e, ok := m.Dependencies.Get("some-plugin")
	if !ok {
		t.Fatal("expected some-plugin entry")
	}
	if e.Dependencies["govuk-frontend"] != "^3.0.0" {
		t.Errorf("requires range = %q, want ^3.0.0", e.Dependencies["govuk-frontend"])
	}
	if _, ok := m.Dependencies.Get("nested-thing"); ok {
		t.Error("nested legacy dependency should not be lifted to the root container")
	}
}

func TestParsePackageLockTrailingComma(t *testing.T) {
	raw := `{
  "packages": {
    "node_modules/govuk-frontend": {
      "version": "4.7.0",
    },
  },
}`
	m, err := Parse([]byte(raw), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() with trailing commas should succeed, got: %v", err)
	}
	if v, ok := m.ResolveDirect("govuk-frontend"); !ok || v != "4.7.0" {
		t.Errorf("ResolveDirect() = %q, %v; want 4.7.0, true", v, ok)
	}
}

func TestParsePackageLockMalformed(t *testing.T) {
	for _, raw := range []string{
		`{"packages": `,
		`not json at all`,
		`[1, 2, 3]`,
	} {
		if _, err := Parse([]byte(raw), KindPackageLock); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestParseYarnClassic(t *testing.T) {
	m, err := Parse([]byte(yarnClassic), KindYarnLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	v, ok := m.ResolveDirect("govuk-frontend")
	if !ok || v != "4.7.0" {
		t.Errorf("ResolveDirect() = %q, %v; want 4.7.0, true", v, ok)
	}

	// Both selectors of the multi-selector block point at the same entry.
	a, _ := m.Blocks.Get("govuk-frontend@^4.0.0")
	b, _ := m.Blocks.Get("govuk-frontend@^4.5.0")
	if a == nil || a != b {
		t.Error("multi-selector block should share one entry")
	}

	plugin, ok := m.Blocks.Get("some-plugin@^2.0.0")
	if !ok || plugin.Dependencies["govuk-frontend"] != "^4.5.0" {
		t.Errorf("plugin entry = %+v, want dependency on govuk-frontend ^4.5.0", plugin)
	}
}

func TestParseYarnBerry(t *testing.T) {
	m, err := Parse([]byte(yarnBerry), KindYarnLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	v, ok := m.ResolveDirect("govuk-frontend")
	if !ok || v != "5.1.0" {
		t.Errorf("ResolveDirect() = %q, %v; want 5.1.0, true", v, ok)
	}
	if _, ok := m.Blocks.Get("__metadata"); ok {
		t.Error("__metadata must not become a block")
	}
}

func TestParseYarnMalformed(t *testing.T) {
	// Neither a classic block file nor a YAML mapping.
	if _, err := Parse([]byte("- just\n- a\n- sequence\n"), KindYarnLock); !errors.Is(err, ErrMalformed) {
		t.Errorf("Parse() error = %v, want ErrMalformed", err)
	}
}

func TestYarnDuplicateSelectorFirstWins(t *testing.T) {
	raw := `"govuk-frontend@^4.0.0":
  version "4.6.0"

"govuk-frontend@~4.7.0":
  version "4.7.2"
`
	m, err := Parse([]byte(raw), KindYarnLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if v, _ := m.ResolveDirect("govuk-frontend"); v != "4.6.0" {
		t.Errorf("ResolveDirect() = %q, want first block in document order (4.6.0)", v)
	}
}

func TestFindIndirectPackageLock(t *testing.T) {
	m, err := Parse([]byte(packageLockModern), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	got := m.FindIndirect("govuk-frontend")
	want := []Indirect{
		{Parent: "node_modules/some-plugin", Specified: "^4.5.0", Resolved: "4.7.0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindIndirect() = %+v, want %+v", got, want)
	}
}

func TestFindIndirectSkipsRootEntry(t *testing.T) {
	m, err := Parse([]byte(packageLockModern), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	for _, ind := range m.FindIndirect("govuk-frontend") {
		if ind.Parent == "" {
			t.Error("root project entry must not appear as an indirect parent")
		}
	}
}

func TestFindIndirectYarn(t *testing.T) {
	m, err := Parse([]byte(yarnClassic), KindYarnLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	got := m.FindIndirect("govuk-frontend")
	want := []Indirect{
		{Parent: "some-plugin@^2.0.0", Specified: "^4.5.0", Resolved: "4.7.0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindIndirect() = %+v, want %+v", got, want)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	first, err := Parse([]byte(packageLockModern), KindPackageLock)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Parse([]byte(packageLockModern), KindPackageLock)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}
		if !reflect.DeepEqual(first.Packages.Keys(), again.Packages.Keys()) {
			t.Fatal("repeated parses must preserve document order")
		}
		if !reflect.DeepEqual(first.FindIndirect("govuk-frontend"), again.FindIndirect("govuk-frontend")) {
			t.Fatal("repeated parses must yield identical extraction results")
		}
	}
}
