package resolve

import (
	"context"
	"testing"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

func TestBacktrackingDegeneratesToGreedy(t *testing.T) {
	// With no compatibility facts the backtracking resolver must pick the
	// same latest-accepted versions greedy picks.
	source := staticSource{
		"a": versions("3.0", "2.0", "1.0"),
		"b": versions("1.5", "1.0"),
		"c": versions("0.2", "0.1"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", "<3.0"),
		"b": constraint(t, "b", ""),
		"c": constraint(t, "c", ">=0.1"),
	}

	greedy, err := NewGreedy().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := NewBacktracking().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !greedy.Resolved() || !back.Resolved() {
		t.Fatalf("greedy=%+v back=%+v", greedy.Failure, back.Failure)
	}
	for name, v := range greedy.Assignment {
		if got := back.Assignment[name]; !got.Equal(v) {
			t.Errorf("%s: backtracking=%s greedy=%s", name, got, v)
		}
	}
}

func TestBacktrackingHonorsFactWithoutBacktrack(t *testing.T) {
	// x==2.0 requires y>=3.0 and y 3.0 is available: both latest versions
	// stand.
	source := staticSource{
		"x": versions("2.0", "1.0"),
		"y": versions("3.0", "2.0"),
	}
	constraints := map[string]requirements.Constraint{
		"x": constraint(t, "x", ""),
		"y": constraint(t, "y", ""),
	}
	facts := NewStaticFacts().Add("x", "2.0", "y", ">=3.0")

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, facts)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() {
		t.Fatalf("failure: %+v", report.Failure)
	}
	if report.Assignment["x"].String() != "2.0" || report.Assignment["y"].String() != "3.0" {
		t.Errorf("assignment = %v", report.Assignment)
	}
	if err := Verify(context.Background(), report.Assignment, constraints, facts); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestBacktrackingFallsBackOnConflict(t *testing.T) {
	// x==2.0 requires y>=3.0 but y is capped below 3.0: the search must
	// fall back to x==1.0 instead of failing.
	source := staticSource{
		"x": versions("2.0", "1.0"),
		"y": versions("2.5", "2.0"),
	}
	constraints := map[string]requirements.Constraint{
		"x": constraint(t, "x", ""),
		"y": constraint(t, "y", "<3.0"),
	}
	facts := NewStaticFacts().Add("x", "2.0", "y", ">=3.0")

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, facts)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() {
		t.Fatalf("failure: %+v", report.Failure)
	}
	if report.Assignment["x"].String() != "1.0" || report.Assignment["y"].String() != "2.5" {
		t.Errorf("assignment = %v", report.Assignment)
	}
	if err := Verify(context.Background(), report.Assignment, constraints, facts); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestBacktrackingChainedConflicts(t *testing.T) {
	// A chain that forces two levels of backtracking: every newer release
	// of a demands more of b than the chosen c tolerates.
	source := staticSource{
		"a": versions("3.0", "2.0", "1.0"),
		"b": versions("3.0", "2.0", "1.0"),
		"c": versions("1.1", "1.0"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ""),
		"b": constraint(t, "b", ""),
		"c": constraint(t, "c", ""),
	}
	facts := NewStaticFacts().
		Add("a", "3.0", "b", ">=3.0").
		Add("a", "2.0", "b", ">=2.0").
		Add("a", "1.0", "b", ">=1.0").
		Add("c", "1.1", "b", "<2.0").
		Add("c", "1.0", "b", "<3.0")

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, facts)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() {
		t.Fatalf("failure: %+v", report.Failure)
	}
	if err := Verify(context.Background(), report.Assignment, constraints, facts); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestBacktrackingExhaustedSearch(t *testing.T) {
	// Every version of x demands a y that cannot exist: the search must
	// exhaust and name the implicated packages.
	source := staticSource{
		"x": versions("2.0", "1.0"),
		"y": versions("1.0"),
	}
	constraints := map[string]requirements.Constraint{
		"x": constraint(t, "x", ""),
		"y": constraint(t, "y", ""),
	}
	facts := NewStaticFacts().
		Add("x", "2.0", "y", ">=3.0").
		Add("x", "1.0", "y", ">=2.0")

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, facts)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() {
		t.Fatalf("expected failure, got %v", report.Assignment)
	}
	if report.Failure.Code != errors.ErrCodeNoConsistentAssignment {
		t.Errorf("code = %s", report.Failure.Code)
	}
	if len(report.Failure.Packages) == 0 {
		t.Error("failure should name implicated packages")
	}
}

func TestBacktrackingEmptyDomainFailsBeforeSearch(t *testing.T) {
	source := staticSource{
		"a": versions("1.0"),
		"b": versions("1.0"),
	}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ">=2.0"),
		"b": constraint(t, "b", ""),
	}

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() || report.Failure.Code != errors.ErrCodeUnsatisfiable {
		t.Errorf("report = %+v", report)
	}
	if len(report.Failure.Packages) != 1 || report.Failure.Packages[0] != "a" {
		t.Errorf("packages = %v", report.Failure.Packages)
	}
}

func TestBacktrackingEmptyConstraints(t *testing.T) {
	report, err := NewBacktracking().Resolve(context.Background(), nil, staticSource{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() || len(report.Assignment) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestBacktrackingRegistryErrorDuringSearch(t *testing.T) {
	source := failingSource{err: errors.New(errors.ErrCodeNetwork, "registry unreachable")}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ""),
	}

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() || report.Failure.Code != errors.ErrCodeRegistry {
		t.Errorf("report = %+v", report)
	}
}

func TestBacktrackingCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := staticSource{"a": versions("1.0")}
	constraints := map[string]requirements.Constraint{
		"a": constraint(t, "a", ""),
	}

	report, err := NewBacktracking().Resolve(ctx, constraints, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Resolved() || report.Failure.Code != errors.ErrCodeCancelled {
		t.Errorf("report = %+v", report)
	}
}

func TestBacktrackingSoundOnWideFixture(t *testing.T) {
	// Six packages with mixed facts: the point is that whatever the search
	// returns, Verify accepts it.
	source := staticSource{
		"p1": versions("2.0", "1.0"),
		"p2": versions("2.0", "1.0"),
		"p3": versions("2.0", "1.0"),
		"p4": versions("2.0", "1.0"),
		"p5": versions("2.0", "1.0"),
		"p6": versions("2.0", "1.0"),
	}
	constraints := make(map[string]requirements.Constraint, len(source))
	for name := range source {
		constraints[name] = constraint(t, name, "")
	}
	facts := NewStaticFacts().
		Add("p1", "2.0", "p2", "<2.0").
		Add("p2", "2.0", "p3", ">=2.0").
		Add("p3", "2.0", "p4", "<2.0").
		Add("p5", "2.0", "p6", ">=2.0").
		Add("p6", "2.0", "p1", ">=1.0")

	report, err := NewBacktracking().Resolve(context.Background(), constraints, source, facts)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resolved() {
		t.Fatalf("failure: %+v", report.Failure)
	}
	if err := Verify(context.Background(), report.Assignment, constraints, facts); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
