package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// Backtracking performs ordered depth-first search over per-package
// candidate domains, enforcing the aggregated constraints and every
// compatibility fact linking a candidate to already-assigned packages.
//
// The search is modeled as an explicit stack of frames rather than
// call-stack recursion: each frame holds one package's remaining
// candidates, which keeps undo, cancellation checks and dead-end
// memoization easy to reason about.
//
// Packages are ordered tightest-domain-first (name as tiebreak) to reduce
// branching early; candidates are tried newest-first so the search
// degrades to the greedy answer when no conflicts exist. Assignment
// prefixes proven unsatisfiable are memoized and never re-explored.
type Backtracking struct {
	// Logger receives search progress messages; nil disables logging.
	Logger func(format string, args ...any)
}

// NewBacktracking creates the backtracking strategy.
func NewBacktracking() *Backtracking { return &Backtracking{} }

// Name returns "backtracking".
func (b *Backtracking) Name() string { return "backtracking" }

// frame is one level of the search stack: the package at this index and
// its candidates not yet tried under the current prefix.
type frame struct {
	pkg    string
	domain []pep440.Version
	next   int // index into domain of the next candidate to try
}

// search carries the mutable state of one resolution run.
type search struct {
	ctx    context.Context
	order  []string
	domain map[string][]pep440.Version
	facts  FactSource

	assignment Assignment
	stack      []frame
	deadEnds   map[string]bool // memo of exhausted assignment prefixes
	conflicts  []string        // packages implicated in dead ends, most recent first
}

// Resolve runs the depth-first search. Expected failures (empty domains,
// registry errors, exhausted search, cancellation) are reported in the
// Report; the error return is reserved for programming errors.
func (b *Backtracking) Resolve(ctx context.Context, constraints map[string]requirements.Constraint,
	candidates CandidateSource, facts FactSource) (*Report, error) {

	if len(constraints) == 0 {
		return newResolved(b.Name(), Assignment{}), nil
	}

	domains := make(map[string][]pep440.Version, len(constraints))
	var empty []string
	for _, name := range sortedNames(constraints) {
		domain, err := candidates.Domain(ctx, constraints[name])
		if err != nil {
			return newFailed(b.Name(), errors.ErrCodeRegistry, []string{name},
				fmt.Sprintf("fetch candidates: %v", err)), nil
		}
		if len(domain) == 0 {
			empty = append(empty, name)
			continue
		}
		domains[name] = domain
	}
	if len(empty) > 0 {
		return newFailed(b.Name(), errors.ErrCodeUnsatisfiable, empty,
			fmt.Sprintf("no version satisfies aggregated constraint for %s",
				strings.Join(empty, ", "))), nil
	}

	s := &search{
		ctx:        ctx,
		order:      orderTightestFirst(domains),
		domain:     domains,
		facts:      facts,
		assignment: make(Assignment, len(domains)),
		deadEnds:   make(map[string]bool),
	}

	report, err := s.run(b)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// run drives the frame stack until success, exhaustion, or cancellation.
func (s *search) run(b *Backtracking) (*Report, error) {
	s.push(0)

	for len(s.stack) > 0 {
		if s.ctx.Err() != nil {
			return newFailed(b.Name(), errors.ErrCodeCancelled, nil, "resolution cancelled"), nil
		}

		f := &s.stack[len(s.stack)-1]
		idx := len(s.stack) - 1

		advanced := false
		for f.next < len(f.domain) {
			v := f.domain[f.next]
			f.next++

			ok, err := s.compatible(f.pkg, v)
			if err != nil {
				return newFailed(b.Name(), errors.ErrCodeRegistry, []string{f.pkg},
					fmt.Sprintf("fetch compatibility metadata: %v", err)), nil
			}
			if !ok {
				b.logf("rejected %s==%s: conflicts with current assignment", f.pkg, v)
				continue
			}

			s.assignment[f.pkg] = v

			if idx+1 == len(s.order) {
				return newResolved(b.Name(), s.assignment), nil
			}
			if s.deadEnds[s.prefixKey(idx+1)] {
				// This prefix already proved unsatisfiable deeper down.
				delete(s.assignment, f.pkg)
				continue
			}

			s.push(idx + 1)
			advanced = true
			break
		}

		if !advanced {
			// Every candidate at this index failed under the current
			// prefix: memoize the dead end and backtrack.
			s.deadEnds[s.prefixKey(idx)] = true
			s.recordConflict(f.pkg)
			b.logf("backtracking from %s: no viable candidate", f.pkg)

			delete(s.assignment, f.pkg)
			s.stack = s.stack[:len(s.stack)-1]
			if len(s.stack) > 0 {
				parent := &s.stack[len(s.stack)-1]
				delete(s.assignment, parent.pkg)
				// The parent's current choice led here; its loop resumes
				// with the next candidate.
			}
		}
	}

	return newFailed(b.Name(), errors.ErrCodeNoConsistentAssignment, s.conflicts,
		"no consistent assignment exists"), nil
}

func (s *search) push(idx int) {
	s.stack = append(s.stack, frame{pkg: s.order[idx], domain: s.domain[s.order[idx]]})
}

// compatible checks candidate v of pkg against every compatibility fact
// linking it to already-assigned packages, in both directions: facts
// declared by (pkg, v) about assigned packages, and facts declared by
// assigned releases about pkg.
func (s *search) compatible(pkg string, v pep440.Version) (bool, error) {
	if s.facts == nil {
		return true, nil
	}

	own, err := s.facts.Facts(s.ctx, pkg, v)
	if err != nil {
		return false, err
	}
	for _, f := range own {
		assigned, ok := s.assignment[f.Requires]
		if !ok {
			continue // checked when that package gets assigned
		}
		if !f.Specifiers.Contains(assigned) {
			return false, nil
		}
	}

	for other, assigned := range s.assignment {
		fs, err := s.facts.Facts(s.ctx, other, assigned)
		if err != nil {
			return false, err
		}
		for _, f := range fs {
			if f.Requires == pkg && !f.Specifiers.Contains(v) {
				return false, nil
			}
		}
	}

	return true, nil
}

// prefixKey identifies the assignment prefix for packages order[0:idx].
// The package order is fixed per run, so the chosen versions alone
// identify the prefix.
func (s *search) prefixKey(idx int) string {
	parts := make([]string, idx)
	for i := 0; i < idx; i++ {
		parts[i] = s.assignment[s.order[i]].String()
	}
	return strings.Join(parts, "|")
}

// recordConflict tracks packages implicated in dead ends, most recent
// first, for failure diagnosis.
func (s *search) recordConflict(pkg string) {
	for _, c := range s.conflicts {
		if c == pkg {
			return
		}
	}
	s.conflicts = append([]string{pkg}, s.conflicts...)
}

// orderTightestFirst fixes the package order for the run: smallest
// candidate domain first, names as tiebreak for determinism.
func orderTightestFirst(domains map[string][]pep440.Version) []string {
	order := make([]string, 0, len(domains))
	for name := range domains {
		order = append(order, name)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := len(domains[order[i]]), len(domains[order[j]])
		if di != dj {
			return di < dj
		}
		return order[i] < order[j]
	})
	return order
}

func (b *Backtracking) logf(format string, args ...any) {
	if b.Logger != nil {
		b.Logger(format, args...)
	}
}
