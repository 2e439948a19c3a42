package requirements

import (
	"strings"
	"testing"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
)

func mustParse(t *testing.T, content, source string) []Requirement {
	t.Helper()
	reqs, err := ParseReader(strings.NewReader(content), source)
	if err != nil {
		t.Fatalf("ParseReader(%s): %v", source, err)
	}
	return reqs
}

func TestAggregateIntersects(t *testing.T) {
	file1 := mustParse(t, "a>=1.0,<2.0\n", "file1.txt")
	file2 := mustParse(t, "a>=1.5\n", "file2.txt")

	constraints, err := Aggregate(append(file1, file2...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	c, ok := constraints["a"]
	if !ok {
		t.Fatal("missing constraint for a")
	}
	if got := c.Specifiers.String(); got != ">=1.0,<2.0,>=1.5" {
		t.Errorf("Specifiers = %q", got)
	}
	if len(c.Sources) != 2 {
		t.Errorf("Sources = %v, want both files", c.Sources)
	}

	// The aggregate accepts exactly the versions in [1.5, 2.0).
	for _, tt := range []struct {
		version string
		want    bool
	}{
		{"1.9", true}, {"1.6", true}, {"1.5", true}, {"1.4", false}, {"1.0", false}, {"2.0", false},
	} {
		if got := c.Specifiers.Contains(pep440.MustParse(tt.version)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestAggregateCommutative(t *testing.T) {
	r1 := mustParse(t, "a>=1.0,<2.0\nb==1.2\n", "r1.txt")
	r2 := mustParse(t, "a>=1.5\nc~=0.8.0\n", "r2.txt")

	forward, err := Aggregate(append(append([]Requirement{}, r1...), r2...))
	if err != nil {
		t.Fatal(err)
	}
	reverse, err := Aggregate(append(append([]Requirement{}, r2...), r1...))
	if err != nil {
		t.Fatal(err)
	}

	if len(forward) != len(reverse) {
		t.Fatalf("package counts differ: %d vs %d", len(forward), len(reverse))
	}
	probe := []string{"0.8.4", "1.0", "1.2", "1.5", "1.9", "2.0"}
	for name, fc := range forward {
		rc := reverse[name]
		for _, p := range probe {
			v := pep440.MustParse(p)
			if fc.Specifiers.Contains(v) != rc.Specifiers.Contains(v) {
				t.Errorf("%s: aggregation order changed acceptance of %s", name, p)
			}
		}
	}
}

func TestAggregateNormalizesAcrossSpellings(t *testing.T) {
	reqs := append(
		mustParse(t, "Typing_Extensions>=4.0\n", "a.txt"),
		mustParse(t, "typing-extensions<5.0\n", "b.txt")...,
	)
	constraints, err := Aggregate(reqs)
	if err != nil {
		t.Fatal(err)
	}
	if len(constraints) != 1 {
		t.Fatalf("equivalent spellings should unify, got %d entries", len(constraints))
	}
	if _, ok := constraints["typing-extensions"]; !ok {
		t.Error("constraint should be keyed by normalized name")
	}
}

func TestAggregateDetectsDisjointPins(t *testing.T) {
	reqs := append(
		mustParse(t, "b==1.0\n", "file1.txt"),
		mustParse(t, "b==2.0\n", "file2.txt")...,
	)

	_, err := Aggregate(reqs)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("error code = %q, want CONFLICT", errors.GetCode(err))
	}
	for _, frag := range []string{"b", "==1.0", "==2.0", "file1.txt", "file2.txt"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q should mention %q", err.Error(), frag)
		}
	}
}

func TestAggregateEqualPinsAreFine(t *testing.T) {
	reqs := append(
		mustParse(t, "b==1.0\n", "file1.txt"),
		mustParse(t, "b==1.0.0\n", "file2.txt")...,
	)
	if _, err := Aggregate(reqs); err != nil {
		t.Fatalf("equal pins should not conflict: %v", err)
	}
}

func TestNames(t *testing.T) {
	constraints, err := Aggregate(mustParse(t, "zebra\nalpha\nmango\n", "r.txt"))
	if err != nil {
		t.Fatal(err)
	}
	names := Names(constraints)
	if strings.Join(names, ",") != "alpha,mango,zebra" {
		t.Errorf("Names = %v, want sorted", names)
	}
}
