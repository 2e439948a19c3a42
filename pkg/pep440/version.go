// Package pep440 implements Python version and version-specifier semantics
// as defined by PEP 440.
//
// The package covers the subset needed for requirements resolution:
// parsing and totally-ordered comparison of versions (epoch, dotted release
// segments, pre/post/dev qualifiers) and evaluation of version specifiers
// (==, !=, >=, <=, >, <, ~=, including ".*" prefix matching).
//
// Versions are immutable value types and safe to copy and share.
package pep440

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
)

// versionRE matches PEP 440 version strings after lowercasing.
var versionRE = regexp.MustCompile(`^v?` +
	`(?:(\d+)!)?` + // 1: epoch
	`(\d+(?:\.\d+)*)` + // 2: release segments
	`(?:[._-]?(a|b|c|rc|alpha|beta|pre|preview)[._-]?(\d*))?` + // 3,4: pre-release
	`(?:[._-]?(post|rev|r)[._-]?(\d*)|-(\d+))?` + // 5,6,7: post-release
	`(?:[._-]?(dev)[._-]?(\d*))?` + // 8,9: dev-release
	`(?:\+([a-z0-9]+(?:[._-][a-z0-9]+)*))?$`) // 10: local (ignored in ordering)

// preLabels normalizes spelling variants to canonical pre-release labels.
var preLabels = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

// preRank orders canonical pre-release labels.
var preRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// absent marks a missing numeric qualifier.
const absent = -1

// Version is a parsed PEP 440 version. The zero value is not a valid
// version; construct instances with Parse or MustParse.
type Version struct {
	Epoch   int
	Release []int
	Pre     string // canonical label ("a", "b", "rc"), empty if none
	PreNum  int    // pre-release number, absent if Pre is empty
	Post    int    // post-release number, absent if none
	Dev     int    // dev-release number, absent if none
	Local   string // local segment, ignored in ordering

	raw string
}

// Parse parses text as a PEP 440 version. Surrounding whitespace and a
// leading "v" are tolerated; letters are case-insensitive.
func Parse(text string) (Version, error) {
	raw := strings.TrimSpace(text)
	m := versionRE.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return Version{}, errors.New(errors.ErrCodeParse, "invalid version %q", text)
	}

	v := Version{PreNum: absent, Post: absent, Dev: absent, raw: raw}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, seg := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return Version{}, errors.New(errors.ErrCodeParse, "invalid version %q", text)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		v.Pre = preLabels[m[3]]
		v.PreNum = atoiDefault(m[4], 0)
	}
	switch {
	case m[5] != "":
		v.Post = atoiDefault(m[6], 0)
	case m[7] != "":
		v.Post = atoiDefault(m[7], 0)
	}
	if m[8] != "" {
		v.Dev = atoiDefault(m[9], 0)
	}
	v.Local = m[10]

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures and
// package-level constants.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, _ := strconv.Atoi(s)
	return n
}

// String returns the original text the version was parsed from.
func (v Version) String() string { return v.raw }

// IsPrerelease reports whether v is a pre-release or dev-release.
// Post-releases of final versions are not pre-releases.
func (v Version) IsPrerelease() bool {
	return v.Pre != "" || v.Dev != absent
}

// Compare returns -1, 0, or +1 if v is ordered before, equal to, or after o.
// The ordering is total: local segments are ignored and all remaining
// fields participate, so ties imply equal precedence.
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		return cmpInt(v.Epoch, o.Epoch)
	}
	if c := cmpRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmpPair(v.preKey(), o.preKey()); c != 0 {
		return c
	}
	if c := cmpInt(postKey(v.Post), postKey(o.Post)); c != 0 {
		return c
	}
	return cmpInt(devKey(v.Dev), devKey(o.Dev))
}

// Equal reports whether v and o have equal precedence.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v is ordered before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// preKey computes the pre-release sort key following packaging's rules:
// a bare dev release sorts before any pre-release of the same release,
// and a release without pre/dev qualifiers sorts after every pre-release.
func (v Version) preKey() [2]int {
	switch {
	case v.Pre == "" && v.Post == absent && v.Dev != absent:
		return [2]int{-1 << 30, 0} // dev-only: before all pre-releases
	case v.Pre == "":
		return [2]int{1 << 30, 0} // final or post: after all pre-releases
	default:
		return [2]int{preRank[v.Pre], v.PreNum}
	}
}

func postKey(post int) int {
	if post == absent {
		return -1 // no post sorts before any post
	}
	return post
}

func devKey(dev int) int {
	if dev == absent {
		return 1 << 30 // no dev sorts after any dev of the same release
	}
	return dev
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpPair(a, b [2]int) int {
	if c := cmpInt(a[0], b[0]); c != 0 {
		return c
	}
	return cmpInt(a[1], b[1])
}

// cmpRelease compares release segment lists, padding the shorter one
// with zeros so that 1.0 == 1.0.0.
func cmpRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if c := cmpInt(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// Sort orders versions in place, ascending.
func Sort(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
}

// SortDescending orders versions in place, newest first.
func SortDescending(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[j].Less(vs[i]) })
}
