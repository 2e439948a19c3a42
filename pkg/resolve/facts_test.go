package resolve

import (
	"context"
	"testing"

	"github.com/matzehuels/reqsolver/pkg/pep440"
)

// fakeDepsClient serves canned per-release dependency lists and counts
// fetches.
type fakeDepsClient struct {
	deps  map[string][]string
	calls int
}

func (f *fakeDepsClient) FetchReleaseDeps(ctx context.Context, pkg, version string) ([]string, error) {
	f.calls++
	return f.deps[pkg+"@"+version], nil
}

func TestRegistryFactsParsesDeps(t *testing.T) {
	client := &fakeDepsClient{deps: map[string][]string{
		"flask@2.0.1": {"click>=7.1.2", "Werkzeug>=2.0", "itsdangerous"},
	}}
	source := NewRegistryFacts(client)

	facts, err := source.Facts(context.Background(), "Flask", pep440.MustParse("2.0.1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 3 {
		t.Fatalf("facts = %+v", facts)
	}
	if facts[0].Requires != "click" || !facts[0].Specifiers.Contains(pep440.MustParse("7.1.2")) {
		t.Errorf("facts[0] = %+v", facts[0])
	}
	if facts[1].Requires != "werkzeug" {
		t.Errorf("dependency names should be normalized, got %q", facts[1].Requires)
	}
	if len(facts[2].Specifiers) != 0 {
		t.Errorf("bare dependency should have empty specifier set: %+v", facts[2])
	}
}

func TestRegistryFactsMemoizes(t *testing.T) {
	client := &fakeDepsClient{deps: map[string][]string{
		"flask@2.0.1": {"click>=7.1.2"},
	}}
	source := NewRegistryFacts(client)

	for i := 0; i < 3; i++ {
		if _, err := source.Facts(context.Background(), "flask", pep440.MustParse("2.0.1")); err != nil {
			t.Fatal(err)
		}
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestRegistryFactsSkipsUnparseableDeps(t *testing.T) {
	client := &fakeDepsClient{deps: map[string][]string{
		"flask@2.0.1": {"click>=7.1.2", "???not a requirement???"},
	}}
	source := NewRegistryFacts(client)

	facts, err := source.Facts(context.Background(), "flask", pep440.MustParse("2.0.1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 || facts[0].Requires != "click" {
		t.Errorf("facts = %+v", facts)
	}
}

func TestStaticFactsNormalizesNames(t *testing.T) {
	facts := NewStaticFacts().Add("My_Package", "1.0", "Other.Package", ">=2.0")

	got, err := facts.Facts(context.Background(), "my-package", pep440.MustParse("1.0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Requires != "other-package" {
		t.Errorf("facts = %+v", got)
	}
}
