package requirements

import (
	"sort"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
)

// Constraint is the aggregated specifier set for one package across all
// input files, together with the sources that contributed to it.
type Constraint struct {
	Name       string
	Specifiers pep440.SpecifierSet
	Sources    []string // distinct source labels, in first-seen order
}

// Aggregate groups requirements by normalized package name and intersects
// their specifier sets. Intersection is commutative and associative, so
// the input order of files does not affect the result.
//
// Statically unsatisfiable constraints, i.e. two distinct exact pins for
// the same package, fail with a CONFLICT before any registry access.
func Aggregate(reqs []Requirement) (map[string]Constraint, error) {
	constraints := make(map[string]Constraint)

	for _, req := range reqs {
		c, ok := constraints[req.Name]
		if !ok {
			c = Constraint{Name: req.Name}
		}
		c.Specifiers = pep440.Intersect(c.Specifiers, req.Specifiers)
		if req.Source != "" && !contains(c.Sources, req.Source) {
			c.Sources = append(c.Sources, req.Source)
		}
		constraints[req.Name] = c
	}

	for name, c := range constraints {
		if pins := c.Specifiers.ExactPins(); len(pins) > 1 {
			return nil, errors.New(errors.ErrCodeConflict,
				"%s: contradictory exact pins %s (from %s)",
				name, pinList(pins), strings.Join(c.Sources, ", "))
		}
	}

	return constraints, nil
}

// Names returns the constraint map's package names, sorted.
func Names(constraints map[string]Constraint) []string {
	names := make([]string, 0, len(constraints))
	for name := range constraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func pinList(pins []pep440.Version) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = "==" + p.String()
	}
	return strings.Join(parts, " and ")
}
