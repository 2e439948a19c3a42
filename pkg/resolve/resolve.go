// Package resolve implements the resolution strategies that turn
// aggregated per-package constraints and registry candidate lists into a
// single installable assignment of versions.
//
// Two built-in strategies share the same contract: a fast greedy chooser
// that picks the latest accepted version per package independently, and a
// backtracking constraint solver that additionally enforces declared
// inter-package compatibility and explores alternates on conflict. New
// strategies plug in by satisfying the Strategy interface.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// Assignment maps package names to their chosen versions. Partial during
// search, total on success.
type Assignment map[string]pep440.Version

// clone copies an assignment so a report never aliases search state.
func (a Assignment) clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Status is the terminal state of a resolution run.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Failure describes why a resolution run failed.
type Failure struct {
	Code     errors.Code // reason tag, from the pkg/errors taxonomy
	Packages []string    // offending packages, sorted or most-relevant-first
	Detail   string      // human-readable context
}

// Error renders the failure as a typed error.
func (f *Failure) Error() *errors.Error {
	msg := f.Detail
	if len(f.Packages) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(f.Packages, ", "), f.Detail)
	}
	return errors.New(f.Code, "%s", msg)
}

// Report is the shared result structure both resolvers produce. It is
// created once per run and never mutated afterward. A failed report never
// carries a partial assignment.
type Report struct {
	ID         uuid.UUID
	Strategy   string
	Status     Status
	Assignment Assignment // non-nil iff Status == StatusResolved
	Failure    *Failure   // non-nil iff Status == StatusFailed
}

// Resolved reports whether the run succeeded.
func (r *Report) Resolved() bool { return r.Status == StatusResolved }

func newResolved(strategy string, a Assignment) *Report {
	return &Report{
		ID:         uuid.New(),
		Strategy:   strategy,
		Status:     StatusResolved,
		Assignment: a.clone(),
	}
}

func newFailed(strategy string, code errors.Code, packages []string, detail string) *Report {
	return &Report{
		ID:       uuid.New(),
		Strategy: strategy,
		Status:   StatusFailed,
		Failure:  &Failure{Code: code, Packages: packages, Detail: detail},
	}
}

// CandidateSource supplies the filtered candidate domain for one
// aggregated constraint, ordered descending (newest first). The catalog
// provides the production implementation; tests use in-memory fixtures.
type CandidateSource interface {
	Domain(ctx context.Context, constraint requirements.Constraint) ([]pep440.Version, error)
}

// Strategy is the shared contract of all resolvers: aggregated constraint
// mapping in, resolution report out. Implementations must be
// deterministic for fixed inputs and a fixed catalog snapshot.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "greedy", "backtracking").
	Name() string

	// Resolve produces a terminal report. The error return is reserved
	// for programming errors; expected failures (registry errors,
	// unsatisfiable constraints, exhausted search, cancellation) are
	// reported in the Report itself.
	Resolve(ctx context.Context, constraints map[string]requirements.Constraint,
		candidates CandidateSource, facts FactSource) (*Report, error)
}

// Verify re-checks a resolved assignment against every constraint and
// every compatibility fact. Used to validate resolver soundness after
// the fact; returns nil if the assignment is consistent.
func Verify(ctx context.Context, a Assignment, constraints map[string]requirements.Constraint, facts FactSource) error {
	for name, c := range constraints {
		v, ok := a[name]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "assignment missing package %s", name)
		}
		if !c.Specifiers.Contains(v) {
			return errors.New(errors.ErrCodeInternal,
				"%s==%s violates constraint %s", name, v, c.Specifiers)
		}
	}
	if facts == nil {
		return nil
	}
	for name, v := range a {
		fs, err := facts.Facts(ctx, name, v)
		if err != nil {
			return err
		}
		for _, f := range fs {
			other, ok := a[f.Requires]
			if !ok {
				continue
			}
			if !f.Specifiers.Contains(other) {
				return errors.New(errors.ErrCodeInternal,
					"%s==%s requires %s%s but assignment has %s==%s",
					name, v, f.Requires, f.Specifiers, f.Requires, other)
			}
		}
	}
	return nil
}

// sortedNames returns the constraint names in deterministic order.
func sortedNames(constraints map[string]requirements.Constraint) []string {
	names := make([]string, 0, len(constraints))
	for name := range constraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
