package analysis

import "testing"

func TestAggregate(t *testing.T) {
	results := []*Result{
		{
			BuiltByGovernment: true,
			DirectDependencies: []DependencyRecord{
				{SpecifiedVersion: "^4.0.0", ActualVersion: "4.7.0"},
			},
		},
		{
			DirectDependencies: []DependencyRecord{
				{SpecifiedVersion: "4.7.0", ActualVersion: "4.7.0"},
			},
		},
		{
			IsPrototype: true,
			IndirectDependencies: [][]DependencyRecord{
				{{SpecifiedVersion: "^5.0.0", ActualVersion: "5.1.0", Parent: "some-plugin"}},
			},
		},
		{
			DirectDependencies: []DependencyRecord{
				{SpecifiedVersion: "^3.0.0", Unresolved: true},
			},
		},
		{CouldntAccess: true},
	}

	m := Aggregate(results)

	if m.Total != 5 {
		t.Errorf("Total = %d, want 5", m.Total)
	}
	if m.Government != 1 {
		t.Errorf("Government = %d, want 1", m.Government)
	}
	if m.Prototypes != 1 {
		t.Errorf("Prototypes = %d, want 1", m.Prototypes)
	}
	if m.CouldntAccess != 1 {
		t.Errorf("CouldntAccess = %d, want 1", m.CouldntAccess)
	}
	if m.WithDirect != 3 {
		t.Errorf("WithDirect = %d, want 3", m.WithDirect)
	}
	if m.WithIndirect != 1 {
		t.Errorf("WithIndirect = %d, want 1", m.WithIndirect)
	}
	if m.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", m.Unresolved)
	}
	if m.Versions["4.7.0"] != 2 || m.Versions["5.1.0"] != 1 {
		t.Errorf("Versions = %v", m.Versions)
	}
	if m.Majors[4] != 2 || m.Majors[5] != 1 {
		t.Errorf("Majors = %v", m.Majors)
	}
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(nil)
	if m.Total != 0 || len(m.Versions) != 0 || len(m.Majors) != 0 {
		t.Errorf("Aggregate(nil) = %+v, want zeroes", m)
	}
}
