package analysis

import (
	"github.com/Masterminds/semver/v3"
)

// Metrics is the key-metrics summary aggregated over a result set, used
// for longitudinal adoption reporting.
type Metrics struct {
	Total         int `json:"total"`
	Government    int `json:"government"`
	Prototypes    int `json:"prototypes"`
	CouldntAccess int `json:"couldntAccess"`
	WithDirect    int `json:"withDirect"`
	WithIndirect  int `json:"withIndirect"`
	Unresolved    int `json:"unresolved"` // repositories with at least one unresolvable range

	// Versions counts repositories by the target's resolved version.
	Versions map[string]int `json:"versions"`
	// Majors counts repositories by resolved major version.
	Majors map[uint64]int `json:"majors"`
}

// Aggregate computes summary counts over results. A repository
// contributes one version: its first direct resolved version, or the
// first resolved indirect version when it has no direct dependency.
func Aggregate(results []*Result) *Metrics {
	m := &Metrics{
		Versions: make(map[string]int),
		Majors:   make(map[uint64]int),
	}

	for _, r := range results {
		m.Total++
		if r.BuiltByGovernment {
			m.Government++
		}
		if r.IsPrototype {
			m.Prototypes++
		}
		if r.CouldntAccess {
			m.CouldntAccess++
		}
		if len(r.DirectDependencies) > 0 {
			m.WithDirect++
		}
		if len(r.IndirectDependencies) > 0 {
			m.WithIndirect++
		}
		if hasUnresolved(r) {
			m.Unresolved++
		}

		if v := resolvedVersion(r); v != "" {
			m.Versions[v]++
			if sv, err := semver.NewVersion(v); err == nil {
				m.Majors[sv.Major()]++
			}
		}
	}
	return m
}

func hasUnresolved(r *Result) bool {
	for _, d := range r.DirectDependencies {
		if d.Unresolved {
			return true
		}
	}
	for _, group := range r.IndirectDependencies {
		for _, d := range group {
			if d.Unresolved {
				return true
			}
		}
	}
	return false
}

// resolvedVersion picks the repository's reported version.
func resolvedVersion(r *Result) string {
	for _, d := range r.DirectDependencies {
		if d.ActualVersion != "" {
			return d.ActualVersion
		}
	}
	for _, group := range r.IndirectDependencies {
		for _, d := range group {
			if d.ActualVersion != "" {
				return d.ActualVersion
			}
		}
	}
	return ""
}
