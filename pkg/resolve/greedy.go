package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// Greedy resolves each package independently by picking the newest
// candidate accepted by its aggregated constraint. There is no
// cross-package backtracking: an empty domain for any package fails the
// run. Output is fully deterministic for a fixed catalog snapshot.
type Greedy struct {
	// Logger receives per-package progress messages; nil disables logging.
	Logger func(format string, args ...any)
}

// NewGreedy creates the greedy strategy.
func NewGreedy() *Greedy { return &Greedy{} }

// Name returns "greedy".
func (g *Greedy) Name() string { return "greedy" }

// Resolve picks the maximum accepted version per package. The facts
// argument is ignored: greedy resolution treats packages as independent.
func (g *Greedy) Resolve(ctx context.Context, constraints map[string]requirements.Constraint,
	candidates CandidateSource, facts FactSource) (*Report, error) {

	assignment := make(Assignment, len(constraints))
	var unsatisfiable []string

	for _, name := range sortedNames(constraints) {
		if err := ctx.Err(); err != nil {
			return newFailed(g.Name(), errors.ErrCodeCancelled, nil, "resolution cancelled"), nil
		}

		c := constraints[name]
		domain, err := candidates.Domain(ctx, c)
		if err != nil {
			return newFailed(g.Name(), errors.ErrCodeRegistry, []string{name},
				fmt.Sprintf("fetch candidates: %v", err)), nil
		}

		if len(domain) == 0 {
			unsatisfiable = append(unsatisfiable, name)
			g.logf("no version of %s satisfies %s", name, c.Specifiers)
			continue
		}

		// Domains are pre-sorted descending, so the first entry is the
		// latest accepted version.
		assignment[name] = domain[0]
		g.logf("picked %s==%s", name, domain[0])
	}

	if len(unsatisfiable) > 0 {
		return newFailed(g.Name(), errors.ErrCodeUnsatisfiable, unsatisfiable,
			fmt.Sprintf("no version satisfies aggregated constraint for %s",
				strings.Join(unsatisfiable, ", "))), nil
	}

	return newResolved(g.Name(), assignment), nil
}

func (g *Greedy) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger(format, args...)
	}
}
