// Package catalog provides the version catalog: registry-backed candidate
// lists per package, cached with a configurable time-to-live.
//
// The catalog is constructed with an injected registry client, cache
// backend and clock, so tests can run against a fake registry and a fake
// clock instead of the network and wall time. Cache entries are keyed by
// normalized package name only; constraint filtering happens downstream
// in the resolvers.
package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/reqsolver/pkg/cache"
	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
	"github.com/matzehuels/reqsolver/pkg/registry"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

// prefetchWorkers bounds concurrent registry fetches during Prefetch.
const prefetchWorkers = 8

// RegistryClient fetches the published releases of a package.
// *pypi.Client satisfies this interface.
type RegistryClient interface {
	FetchReleases(ctx context.Context, name string) ([]registry.Release, error)
}

// Candidate is one published version eligible for selection, with the
// release's declared Python requirement when available.
type Candidate struct {
	Version        pep440.Version
	RequiresPython pep440.SpecifierSet
}

// CandidateList is the descending-ordered list of all known published
// versions of one package. Resolvers hold read-only views.
type CandidateList []Candidate

// Versions returns the bare version list, preserving order.
func (l CandidateList) Versions() []pep440.Version {
	vs := make([]pep440.Version, len(l))
	for i, c := range l {
		vs[i] = c.Version
	}
	return vs
}

// Filter returns the versions accepted by the given specifier set,
// preserving descending order. Prerelease versions are excluded unless
// the set pins one exactly. If python is non-nil, candidates whose
// requires_python rejects it are excluded too.
func (l CandidateList) Filter(set pep440.SpecifierSet, python *pep440.Version) []pep440.Version {
	allowPre := set.PinsPrerelease()
	var out []pep440.Version
	for _, c := range l {
		if c.Version.IsPrerelease() && !allowPre {
			continue
		}
		if !set.Contains(c.Version) {
			continue
		}
		if python != nil && len(c.RequiresPython) > 0 && !c.RequiresPython.Contains(*python) {
			continue
		}
		out = append(out, c.Version)
	}
	return out
}

// entry is the persisted cache record for one package: fetch timestamp
// plus the ordered version list. It round-trips losslessly through any
// cache backend.
type entry struct {
	FetchedAt  time.Time          `json:"fetched_at"`
	Candidates []registry.Release `json:"candidates"`
}

// Catalog caches per-package candidate lists fetched from a registry.
// All methods are safe for concurrent use; writes are serialized per
// package key so at most one fetch per package is in flight.
type Catalog struct {
	registry RegistryClient
	store    cache.Cache
	ttl      time.Duration
	now      func() time.Time

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// New creates a Catalog over the given registry client and cache backend.
// A ttl of 0 means cached entries never expire.
func New(reg RegistryClient, store cache.Cache, ttl time.Duration) *Catalog {
	return &Catalog{
		registry: reg,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		keys:     make(map[string]*sync.Mutex),
	}
}

// Candidates returns the candidate list for name, fetching from the
// registry when the cache has no fresh entry. If refresh is true the
// cache is bypassed and the entry is refetched unconditionally.
//
// Registry failures are reported as REGISTRY_ERROR; callers treat them as
// resolution failure for that package, not a fatal process error.
func (c *Catalog) Candidates(ctx context.Context, name string, refresh bool) (CandidateList, error) {
	name = requirements.NormalizeName(name)

	if !refresh {
		if list, ok := c.load(ctx, name); ok {
			return list, nil
		}
	}

	// Serialize writers per key; concurrent callers for the same package
	// wait for the first fetch and then hit the fresh entry.
	lock := c.keyLock(name)
	lock.Lock()
	defer lock.Unlock()

	if !refresh {
		if list, ok := c.load(ctx, name); ok {
			return list, nil
		}
	}

	releases, err := c.registry.FetchReleases(ctx, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegistry, err, "fetch versions for %s", name)
	}

	e := entry{FetchedAt: c.now(), Candidates: releases}
	if data, err := json.Marshal(e); err == nil {
		// Backend-level expiry is disabled; freshness is enforced against
		// the entry's own timestamp so the injected clock stays in charge.
		_ = c.store.Set(ctx, name, data, 0)
	}

	return c.decode(e), nil
}

// Prefetch warms the cache for the given packages concurrently before a
// resolution run. Individual fetch failures are ignored here; they
// resurface as REGISTRY_ERROR when the resolver asks for the package.
func (c *Catalog) Prefetch(ctx context.Context, names []string, refresh bool) {
	jobs := make(chan string)
	var wg sync.WaitGroup

	workers := min(prefetchWorkers, max(len(names), 1))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if ctx.Err() != nil {
					continue
				}
				_, _ = c.Candidates(ctx, name, refresh)
			}
		}()
	}

	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
}

// load returns a decoded, still-fresh cache entry for name.
func (c *Catalog) load(ctx context.Context, name string) (CandidateList, bool) {
	data, ok, err := c.store.Get(ctx, name)
	if err != nil || !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.FetchedAt) > c.ttl {
		return nil, false
	}
	return c.decode(e), true
}

// decode parses the persisted releases into an ordered candidate list.
// Versions that don't parse as PEP 440 are skipped, as are malformed
// requires_python constraints (the version is kept without the filter).
func (c *Catalog) decode(e entry) CandidateList {
	list := make(CandidateList, 0, len(e.Candidates))
	for _, rel := range e.Candidates {
		v, err := pep440.Parse(rel.Version)
		if err != nil {
			continue
		}
		cand := Candidate{Version: v}
		if rel.RequiresPython != "" {
			if set, err := pep440.ParseSet(rel.RequiresPython); err == nil {
				cand.RequiresPython = set
			}
		}
		list = append(list, cand)
	}
	sortDescending(list)
	return list
}

func (c *Catalog) keyLock(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.keys[name]
	if !ok {
		lock = &sync.Mutex{}
		c.keys[name] = lock
	}
	return lock
}

func sortDescending(list CandidateList) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[j].Version.Less(list[i].Version)
	})
}
