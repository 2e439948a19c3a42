// Package pypi implements the PyPI JSON API client used as the version
// registry for resolution.
//
// Two endpoints are consumed: the package endpoint, whose "releases" map
// yields the full published-version list (with per-version requires_python
// metadata), and the per-release endpoint, whose requires_dist entries
// supply declared dependency specifiers for compatibility checking.
package pypi

import (
	"context"
	"fmt"
	"regexp"

	"github.com/matzehuels/reqsolver/pkg/registry"
	"github.com/matzehuels/reqsolver/pkg/requirements"
)

const defaultBaseURL = "https://pypi.org/pypi"

// markerRE detects environment markers in a requires_dist entry.
var markerRE = regexp.MustCompile(`;\s*(.+)$`)

// skipRE matches markers for dependencies that are not plain runtime
// dependencies (extras, dev and test groups).
var skipRE = regexp.MustCompile(`extra|dev|test`)

// Client provides access to the PyPI package registry API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*registry.Client
	baseURL string
}

// NewClient creates a PyPI client against the public index.
func NewClient() *Client {
	return &Client{
		Client:  registry.NewClient(map[string]string{"Accept": "application/json"}),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a custom index URL.
// Used for private mirrors and tests.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// FetchReleases retrieves every published version of pkg, with the
// requires_python constraint of each release when declared.
//
// The pkg parameter is normalized automatically (PEP 503). Returns
// [registry.ErrNotFound] if the package doesn't exist and
// [registry.ErrNetwork] for HTTP failures. The returned order is the
// registry's map order; callers sort.
func (c *Client) FetchReleases(ctx context.Context, pkg string) ([]registry.Release, error) {
	pkg = requirements.NormalizeName(pkg)

	var data releasesResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		return nil, fmt.Errorf("pypi package %s: %w", pkg, err)
	}

	releases := make([]registry.Release, 0, len(data.Releases))
	for version, dists := range data.Releases {
		if len(dists) == 0 {
			continue
		}
		releases = append(releases, registry.Release{
			Version:        version,
			RequiresPython: dists[0].RequiresPython,
		})
	}
	return releases, nil
}

// FetchReleaseDeps retrieves the declared runtime dependencies of one
// release of pkg as raw requirement strings (e.g. "click>=7.0").
// Entries guarded by extra/dev/test markers are filtered out; other
// markers are stripped, keeping the name and specifier.
func (c *Client) FetchReleaseDeps(ctx context.Context, pkg, version string) ([]string, error) {
	pkg = requirements.NormalizeName(pkg)

	var data releaseResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/%s/json", c.baseURL, pkg, version), &data); err != nil {
		return nil, fmt.Errorf("pypi release %s %s: %w", pkg, version, err)
	}

	var deps []string
	for _, req := range data.Info.RequiresDist {
		if m := markerRE.FindStringSubmatch(req); len(m) > 1 {
			if skipRE.MatchString(m[1]) {
				continue
			}
			req = markerRE.ReplaceAllString(req, "")
		}
		deps = append(deps, req)
	}
	return deps, nil
}

type releasesResponse struct {
	Releases map[string][]releaseDist `json:"releases"`
}

type releaseDist struct {
	RequiresPython string `json:"requires_python"`
}

type releaseResponse struct {
	Info struct {
		RequiresDist []string `json:"requires_dist"`
	} `json:"info"`
}
