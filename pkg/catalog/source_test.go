package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/registry"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

func TestSourceDomainAppliesConstraint(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("flask", "2.1.0", "2.0.1", "2.0.0", "1.1.4", "2.2.0a1")

	c, _ := newTestCatalog(t, reg, time.Hour)
	source := &Source{Catalog: c}

	domain, err := source.Domain(context.Background(), requirements.Constraint{
		Name:       "flask",
		Specifiers: mustSet(t, ">=2.0,<2.1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	assertVersions(t, domain, []string{"2.0.1", "2.0.0"})
}

func TestSourceDomainExcludesPrereleases(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("flask", "2.0.0", "2.1.0a1")

	c, _ := newTestCatalog(t, reg, time.Hour)
	source := &Source{Catalog: c}

	domain, err := source.Domain(context.Background(), requirements.Constraint{Name: "flask"})
	if err != nil {
		t.Fatal(err)
	}
	assertVersions(t, domain, []string{"2.0.0"})
}

func TestSourceDomainHonorsRequiresPython(t *testing.T) {
	reg := newFakeRegistry()
	reg.releases["numpy"] = []registry.Release{
		{Version: "2.0.0", RequiresPython: ">=3.9"},
		{Version: "1.24.0", RequiresPython: ">=3.8"},
	}

	c, _ := newTestCatalog(t, reg, time.Hour)
	py := pep440.MustParse("3.8")
	source := &Source{Catalog: c, Python: &py}

	domain, err := source.Domain(context.Background(), requirements.Constraint{Name: "numpy"})
	if err != nil {
		t.Fatal(err)
	}
	assertVersions(t, domain, []string{"1.24.0"})
}

func TestSourceDomainPropagatesRegistryError(t *testing.T) {
	c, _ := newTestCatalog(t, newFakeRegistry(), time.Hour)
	source := &Source{Catalog: c}

	if _, err := source.Domain(context.Background(), requirements.Constraint{Name: "missing"}); err == nil {
		t.Fatal("expected error for unknown package")
	}
}
