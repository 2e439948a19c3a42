package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// EnvironmentSolver is the boundary to an external SAT-based environment
// solver (e.g. a conda-compatible tool). The engine hands it a rendered
// environment file and consumes only its verdict; materializing the
// environment is the collaborator's business.
type EnvironmentSolver interface {
	// Solve returns whether the environment is satisfiable, with a
	// solver-provided diagnostic when it is not. The error return is for
	// invocation failures (solver missing, crashed), not unsatisfiability.
	Solve(ctx context.Context, envfile []byte) (ok bool, diagnostic string, err error)
}

// envSpec is the environment-file shape consumed by conda-style solvers.
type envSpec struct {
	Name         string   `yaml:"name"`
	Dependencies []string `yaml:"dependencies"`
}

// EnvFile renders the aggregated constraints as a conda-style environment
// YAML: sorted dependency entries with pip's "==" pins rewritten to "=",
// plus an optional python entry.
func EnvFile(constraints map[string]requirements.Constraint, pythonVersion string) ([]byte, error) {
	deps := make([]string, 0, len(constraints)+2)
	for name, c := range constraints {
		entry := name
		if len(c.Specifiers) > 0 {
			entry += strings.ReplaceAll(c.Specifiers.String(), "==", "=")
		}
		deps = append(deps, entry)
	}
	sort.Strings(deps)

	all := make([]string, 0, len(deps)+2)
	if pythonVersion != "" {
		all = append(all, "python="+pythonVersion)
	}
	all = append(all, "pip")
	all = append(all, deps...)

	return yaml.Marshal(envSpec{Name: "reqsolver-env", Dependencies: all})
}

// External adapts an EnvironmentSolver to the Strategy contract. A
// successful verdict produces a resolved report with no assignment (the
// collaborator owns version materialization); an unsatisfiable verdict
// carries the solver's diagnostic.
type External struct {
	solver        EnvironmentSolver
	pythonVersion string
}

// NewExternal creates the external-solver strategy.
func NewExternal(solver EnvironmentSolver, pythonVersion string) *External {
	return &External{solver: solver, pythonVersion: pythonVersion}
}

// Name returns "external".
func (e *External) Name() string { return "external" }

// Resolve renders the environment file and delegates to the solver.
// Candidate and fact sources are ignored: the collaborator consults its
// own channels.
func (e *External) Resolve(ctx context.Context, constraints map[string]requirements.Constraint,
	candidates CandidateSource, facts FactSource) (*Report, error) {

	envfile, err := EnvFile(constraints, e.pythonVersion)
	if err != nil {
		return nil, err
	}

	ok, diagnostic, err := e.solver.Solve(ctx, envfile)
	if err != nil {
		return newFailed(e.Name(), errors.ErrCodeInternal, nil, err.Error()), nil
	}
	if !ok {
		return newFailed(e.Name(), errors.ErrCodeNoConsistentAssignment, nil, diagnostic), nil
	}
	return &Report{
		ID:       uuid.New(),
		Strategy: e.Name(),
		Status:   StatusResolved,
	}, nil
}
