package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqsolver/pkg/catalog"
	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/registry/pypi"
	"github.com/matzehuels/reqsolver/pkg/requirements"
	"github.com/matzehuels/reqsolver/pkg/resolve"
)

// resolveOptions collects the resolve command's flags.
type resolveOptions struct {
	files      []string
	output     string
	strategy   string
	python     string
	facts      bool
	refresh    bool
	noCache    bool
	ttl        string
	configPath string
	indexURL   string
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve -f FILE [-f FILE...]",
		Short: "Merge requirement files and resolve a pinned version set",
		Long: `Resolve parses one or more pip-style requirement files, aggregates the
declared constraints per package, and picks one installable version for
every package against the registry.

The greedy strategy picks the latest accepted version per package
independently. The backtracking strategy additionally checks declared
inter-package compatibility (--facts) and explores older versions when
the latest ones conflict.`,
		Example: `  reqsolver resolve -f requirements.txt -f requirements-dev.txt
  reqsolver resolve -f requirements.txt --strategy greedy -o pinned.txt
  reqsolver resolve -f requirements.txt --facts --python 3.11`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "requirement file to merge (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "requirements.merged.txt", "output file for the pinned set")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "resolution strategy: greedy or backtracking")
	cmd.Flags().StringVar(&opts.python, "python", "", "target Python version for requires_python filtering (e.g. 3.11)")
	cmd.Flags().BoolVar(&opts.facts, "facts", false, "check declared inter-package compatibility from registry metadata")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cache and refetch all candidate lists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the version catalog cache")
	cmd.Flags().StringVar(&opts.ttl, "ttl", "", "cache freshness window (e.g. 24h, 30m)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/reqsolver/config.toml)")
	cmd.Flags().StringVar(&opts.indexURL, "index-url", "", "registry index URL (default PyPI)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, opts *resolveOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	var python *pep440.Version
	if cfg.Python != "" {
		v, err := pep440.Parse(cfg.Python)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --python %q", cfg.Python)
		}
		python = &v
	}

	// Parse and aggregate before any registry access.
	reqs, err := requirements.ParseFiles(opts.files)
	if err != nil {
		return err
	}
	constraints, err := requirements.Aggregate(reqs)
	if err != nil {
		return err
	}
	c.Logger.Infof("Merged %d declarations into %d packages from %d files",
		len(reqs), len(constraints), len(opts.files))

	client := pypi.NewClient()
	if opts.indexURL != "" {
		client = pypi.NewClientWithBaseURL(opts.indexURL)
	}

	store := c.newCache(ctx, cfg, opts.noCache)
	defer store.Close()
	cat := catalog.New(client, store, cfg.TTL.value())

	p := newProgress(c.Logger)
	cat.Prefetch(ctx, requirements.Names(constraints), opts.refresh)
	p.done("Prefetched candidate lists for %d packages", len(constraints))

	source := &catalog.Source{Catalog: cat, Python: python, Refresh: opts.refresh}

	var facts resolve.FactSource
	if opts.facts {
		facts = resolve.NewRegistryFacts(client)
	}

	strategy, err := c.newStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	p = newProgress(c.Logger)
	report, err := strategy.Resolve(ctx, constraints, source, facts)
	if err != nil {
		return err
	}
	if !report.Resolved() {
		c.Logger.Errorf("Resolution failed [%s]: %s", report.Failure.Code, report.Failure.Detail)
		return report.Failure.Error()
	}
	p.done("Resolved %d packages with %s strategy", len(report.Assignment), report.Strategy)

	if err := resolve.WriteRequirementsFile(opts.output, report); err != nil {
		return err
	}
	c.Logger.Infof("Wrote pinned set to %s (run %s)", opts.output, report.ID)
	return nil
}

// newStrategy maps a strategy name to its implementation.
func (c *CLI) newStrategy(name string) (resolve.Strategy, error) {
	switch name {
	case "greedy":
		s := resolve.NewGreedy()
		s.Logger = c.Logger.Debugf
		return s, nil
	case "", "backtracking":
		s := resolve.NewBacktracking()
		s.Logger = c.Logger.Debugf
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown strategy %q (want greedy or backtracking)", name)
	}
}

// applyFlags overlays command-line flags on the loaded config.
func applyFlags(cfg *Config, opts *resolveOptions) error {
	if opts.strategy != "" {
		cfg.Strategy = opts.strategy
	}
	if opts.python != "" {
		cfg.Python = opts.python
	}
	if opts.ttl != "" {
		if err := cfg.TTL.UnmarshalText([]byte(opts.ttl)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --ttl %q", opts.ttl)
		}
	}
	return nil
}
