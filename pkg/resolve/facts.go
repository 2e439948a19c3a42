package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// CompatibilityFact is a declared relationship: version Version of
// package Package requires the Specifiers range of package Requires.
// Absence of facts between two packages means they are independent.
type CompatibilityFact struct {
	Package    string
	Version    pep440.Version
	Requires   string
	Specifiers pep440.SpecifierSet
}

// FactSource supplies compatibility facts for one release of a package.
// A nil FactSource degrades the backtracking resolver to independent
// per-package filtering (it still explores alternates on failure but
// cannot see cross-package conflicts).
type FactSource interface {
	Facts(ctx context.Context, pkg string, version pep440.Version) ([]CompatibilityFact, error)
}

// StaticFacts is an in-memory FactSource for fixtures and tests.
type StaticFacts struct {
	facts map[string][]CompatibilityFact
}

// NewStaticFacts creates an empty fact set.
func NewStaticFacts() *StaticFacts {
	return &StaticFacts{facts: make(map[string][]CompatibilityFact)}
}

// Add declares that pkg at version requires the given specifier range of
// another package. Specifier text must be valid; Add panics otherwise,
// matching its fixture-building role.
func (s *StaticFacts) Add(pkg, version, requires, specifiers string) *StaticFacts {
	v := pep440.MustParse(version)
	set, err := pep440.ParseSet(specifiers)
	if err != nil {
		panic(err)
	}
	key := factKey(requirements.NormalizeName(pkg), v)
	s.facts[key] = append(s.facts[key], CompatibilityFact{
		Package:    requirements.NormalizeName(pkg),
		Version:    v,
		Requires:   requirements.NormalizeName(requires),
		Specifiers: set,
	})
	return s
}

// Facts returns the declared facts for pkg at version.
func (s *StaticFacts) Facts(ctx context.Context, pkg string, version pep440.Version) ([]CompatibilityFact, error) {
	return s.facts[factKey(requirements.NormalizeName(pkg), version)], nil
}

// ReleaseDepsClient fetches the declared dependencies of one release as
// raw requirement strings. *pypi.Client satisfies this interface.
type ReleaseDepsClient interface {
	FetchReleaseDeps(ctx context.Context, pkg, version string) ([]string, error)
}

// RegistryFacts derives compatibility facts from per-release dependency
// metadata fetched from the registry. Results are memoized per release
// for the lifetime of the source, so one resolution run fetches each
// (package, version) pair at most once.
type RegistryFacts struct {
	client ReleaseDepsClient

	mu   sync.Mutex
	memo map[string][]CompatibilityFact
}

// NewRegistryFacts creates a FactSource over a release-metadata client.
func NewRegistryFacts(client ReleaseDepsClient) *RegistryFacts {
	return &RegistryFacts{client: client, memo: make(map[string][]CompatibilityFact)}
}

// Facts fetches and parses the declared dependencies of pkg at version.
// Dependency entries that fail to parse as requirements are skipped;
// fetch failures surface to the caller.
func (s *RegistryFacts) Facts(ctx context.Context, pkg string, version pep440.Version) ([]CompatibilityFact, error) {
	pkg = requirements.NormalizeName(pkg)
	key := factKey(pkg, version)

	s.mu.Lock()
	if facts, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return facts, nil
	}
	s.mu.Unlock()

	deps, err := s.client.FetchReleaseDeps(ctx, pkg, version.String())
	if err != nil {
		return nil, err
	}

	var facts []CompatibilityFact
	for _, dep := range deps {
		reqs, err := requirements.ParseReader(strings.NewReader(dep), pkg+"@"+version.String())
		if err != nil || len(reqs) == 0 {
			continue
		}
		facts = append(facts, CompatibilityFact{
			Package:    pkg,
			Version:    version,
			Requires:   reqs[0].Name,
			Specifiers: reqs[0].Specifiers,
		})
	}

	s.mu.Lock()
	s.memo[key] = facts
	s.mu.Unlock()
	return facts, nil
}

func factKey(pkg string, v pep440.Version) string {
	return pkg + "@@" + v.String()
}
