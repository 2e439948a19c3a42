package resolve

import (
	"context"
	"testing"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

func TestGreedyPicksLatestAccepted(t *testing.T) {
	source := staticSource{
		"a": versions("1.9", "1.6", "1.4", "1.0"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ">=1.0,<2.0,>=1.5"),
	}

	report, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() {
		t.Fatalf("report = %+v", report.Failure)
	}
	if got := report.Assignment["a"]; got.String() != "1.9" {
		t.Errorf("a = %s, want 1.9", got)
	}
}

func TestGreedyDeterministic(t *testing.T) {
	source := staticSource{
		"a": versions("3.2", "3.1", "2.0"),
		"b": versions("1.1", "1.0"),
		"c": versions("0.9", "0.8.1", "0.8"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", "<3.2"),
		"b": constraint(t, "b", ""),
		"c": constraint(t, "c", "!=0.9"),
	}

	want := map[string]string{"a": "3.1", "b": "1.1", "c": "0.8.1"}
	for i := 0; i < 10; i++ {
		report, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !report.Resolved() {
			t.Fatalf("run %d failed: %+v", i, report.Failure)
		}
		for name, v := range want {
			if got := report.Assignment[name]; got.String() != v {
				t.Fatalf("run %d: %s = %s, want %s", i, name, got, v)
			}
		}
	}
}

func TestGreedyReportsAllUnsatisfiablePackages(t *testing.T) {
	source := staticSource{
		"a": versions("1.0"),
		"b": versions("2.0"),
		"c": versions("3.0"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ">=2.0"),
		"b": constraint(t, "b", ""),
		"c": constraint(t, "c", ">=4.0"),
	}

	report, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() {
		t.Fatal("expected failure")
	}
	if report.Failure.Code != errors.ErrCodeUnsatisfiable {
		t.Errorf("code = %s", report.Failure.Code)
	}
	if len(report.Failure.Packages) != 2 ||
		report.Failure.Packages[0] != "a" || report.Failure.Packages[1] != "c" {
		t.Errorf("packages = %v, want [a c]", report.Failure.Packages)
	}
}

func TestGreedyRegistryError(t *testing.T) {
	source := failingSource{err: errors.New(errors.ErrCodeNetwork, "registry unreachable")}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ""),
	}

	report, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() || report.Failure.Code != errors.ErrCodeRegistry {
		t.Errorf("report = %+v", report)
	}
}

func TestGreedyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := staticSource{"a": versions("1.0")}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ""),
	}

	report, err := NewGreedy().Resolve(ctx, constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() || report.Failure.Code != errors.ErrCodeCancelled {
		t.Errorf("report = %+v", report)
	}
}

func TestGreedyIgnoresPrereleaseOnlyWhenSourceFilters(t *testing.T) {
	// The candidate source owns prerelease filtering; greedy just takes
	// the head of whatever domain it is handed.
	source := staticSource{
		"a": versions("2.0", "1.0"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", "<2.0"),
	}

	report, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Assignment["a"]; got.String() != "1.0" {
		t.Errorf("a = %s, want 1.0", got)
	}
}

func TestGreedyEmptyConstraints(t *testing.T) {
	report, err := NewGreedy().Resolve(context.Background(), nil, staticSource{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() || len(report.Assignment) != 0 {
		t.Errorf("report = %+v", report)
	}
}
