package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Parse converts raw lockfile bytes into a Model of the given kind.
//
// package-lock parsing is tolerant of hand-edited JSON (comments,
// trailing commas). yarn-lock parsing tries the classic block format
// first and falls back to YAML for berry lockfiles. On failure the
// returned error wraps ErrMalformed; no partial model is returned.
func Parse(raw []byte, kind Kind) (*Model, error) {
	switch kind {
	case KindPackageLock:
		return parsePackageLock(raw)
	case KindYarnLock:
		m, err := parseYarnClassic(raw)
		if err == nil {
			return m, nil
		}
		return parseYarnBerry(raw)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, kind)
	}
}

// parsePackageLock decodes a package-lock.json document, preserving the
// document order of both root containers. hujson standardizes minor
// non-strict JSON before decoding.
func parsePackageLock(raw []byte) (*Model, error) {
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := &Model{Kind: KindPackageLock}

	dec := json.NewDecoder(bytes.NewReader(std))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "packages":
			m.Packages, err = decodeEntryMap(dec, false)
		case "dependencies":
			m.Dependencies, err = decodeEntryMap(dec, true)
		default:
			err = skipValue(dec)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// decodeEntryMap reads an object of package entries in document order.
// When legacy is set, declared ranges come from "requires" and nested
// "dependencies" objects are skipped rather than flattened; nesting in
// the legacy container encodes shadowed installs, which are out of scope
// for single-package lookups.
func decodeEntryMap(dec *json.Decoder, legacy bool) (*Entries, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tok == nil {
		return NewEntries(), nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrMalformed, tok)
	}

	entries := NewEntries()
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		e, err := decodeEntry(dec, legacy)
		if err != nil {
			return nil, err
		}
		entries.Set(key, e)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return entries, nil
}

func decodeEntry(dec *json.Decoder, legacy bool) (*Entry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected entry object, got %v", ErrMalformed, tok)
	}

	e := &Entry{}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		switch {
		case key == "version":
			if err := dec.Decode(&e.Version); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		case key == "dependencies" && !legacy:
			if err := dec.Decode(&e.Dependencies); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		case key == "requires" && legacy:
			if err := dec.Decode(&e.Dependencies); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		case key == "devDependencies" && !legacy:
			if err := dec.Decode(&e.DevDependencies); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		case key == "peerDependencies" && !legacy:
			if err := dec.Decode(&e.PeerDependencies); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		default:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return e, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %v, got %v", ErrMalformed, want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected key, got %v", ErrMalformed, tok)
	}
	return s, nil
}

// skipValue consumes one complete JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch d {
	case '{', '[':
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if dd, ok := tok.(json.Delim); ok {
				switch dd {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}

// parseYarnClassic parses the flat block format used by Yarn 1:
//
//	"name@range", name@range2:
//	  version "1.2.3"
//	  dependencies:
//	    foo "^1.0.0"
//
// Each selector of a block becomes its own key, all pointing at the same
// entry. Returns ErrMalformed if no block is found, so the caller can
// fall back to the berry format.
func parseYarnClassic(raw []byte) (*Model, error) {
	m := &Model{Kind: KindYarnLock, Blocks: NewEntries()}

	var cur *Entry
	inDeps := false
	versions := 0

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue

		case strings.HasPrefix(line, "__metadata"):
			// Berry marker; this file belongs to the YAML parser.
			return nil, fmt.Errorf("%w: berry metadata in classic parse", ErrMalformed)

		case !strings.HasPrefix(line, " ") && strings.HasSuffix(line, ":"):
			// Block header: one or more comma-separated selectors.
			cur = &Entry{}
			inDeps = false
			for _, sel := range strings.Split(strings.TrimSuffix(line, ":"), ",") {
				sel = strings.Trim(strings.TrimSpace(sel), `"`)
				if sel == "" {
					return nil, fmt.Errorf("%w: empty yarn selector", ErrMalformed)
				}
				m.Blocks.Set(sel, cur)
			}

		case cur != nil && strings.HasPrefix(line, "    ") && inDeps:
			name, rng, ok := splitYarnPair(strings.TrimSpace(line))
			if !ok {
				continue
			}
			if cur.Dependencies == nil {
				cur.Dependencies = make(map[string]string)
			}
			cur.Dependencies[name] = rng

		case cur != nil && strings.HasPrefix(line, "  "):
			field := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(field, "version "):
				cur.Version = strings.Trim(strings.TrimPrefix(field, "version "), `"`)
				versions++
				inDeps = false
			case field == "dependencies:":
				inDeps = true
			default:
				inDeps = false
			}
		}
	}

	if m.Blocks.Len() == 0 || versions == 0 {
		return nil, fmt.Errorf("%w: no yarn blocks found", ErrMalformed)
	}
	return m, nil
}

// splitYarnPair splits `foo "^1.0.0"` into name and range.
func splitYarnPair(s string) (name, rng string, ok bool) {
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return "", "", false
	}
	name = strings.Trim(s[:i], `"`)
	rng = strings.Trim(strings.TrimSpace(s[i+1:]), `"`)
	return name, rng, name != ""
}

// parseYarnBerry parses the YAML document format used by Yarn berry.
// yaml.Node is used instead of a map so key order survives the decode.
func parseYarnBerry(raw []byte) (*Model, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: yarn lockfile is not a mapping", ErrMalformed)
	}

	m := &Model{Kind: KindYarnLock, Blocks: NewEntries()}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if key == "__metadata" {
			continue
		}
		val := root.Content[i+1]
		if val.Kind != yaml.MappingNode {
			continue
		}

		e := &Entry{}
		for j := 0; j+1 < len(val.Content); j += 2 {
			switch val.Content[j].Value {
			case "version":
				e.Version = val.Content[j+1].Value
			case "dependencies":
				deps := make(map[string]string)
				if err := val.Content[j+1].Decode(&deps); err == nil {
					e.Dependencies = deps
				}
			}
		}
		// Berry headers also list several selectors per block.
		for _, sel := range strings.Split(key, ",") {
			sel = strings.Trim(strings.TrimSpace(sel), `"`)
			if sel != "" {
				m.Blocks.Set(sel, e)
			}
		}
	}

	if m.Blocks.Len() == 0 {
		return nil, fmt.Errorf("%w: no yarn entries found", ErrMalformed)
	}
	return m, nil
}
