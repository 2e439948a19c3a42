package catalog

import (
	"context"

	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// Source adapts a Catalog to the resolvers' candidate-domain contract:
// it fetches the full candidate list for a constraint's package and
// applies the constraint, prerelease and requires_python filters.
type Source struct {
	Catalog *Catalog

	// Python, when non-nil, excludes candidates whose requires_python
	// rejects it.
	Python *pep440.Version

	// Refresh bypasses the cache on every lookup.
	Refresh bool
}

// Domain returns the descending list of versions of the constraint's
// package accepted by its aggregated specifier set.
func (s *Source) Domain(ctx context.Context, c requirements.Constraint) ([]pep440.Version, error) {
	list, err := s.Catalog.Candidates(ctx, c.Name, s.Refresh)
	if err != nil {
		return nil, err
	}
	return list.Filter(c.Specifiers, s.Python), nil
}
