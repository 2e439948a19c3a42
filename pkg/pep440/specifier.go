package pep440

import (
	"regexp"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
)

// specifierRE splits one specifier clause into operator and version token.
var specifierRE = regexp.MustCompile(`^(===|==|!=|~=|>=|<=|>|<)\s*(.+?)\s*$`)

// Specifier is a single version-comparison predicate: an operator paired
// with a version token, e.g. ">=1.2" or "==2.1.*".
type Specifier struct {
	Op       string
	Version  Version
	Wildcard bool // true for "==X.Y.*" / "!=X.Y.*" prefix forms

	raw string
}

// ParseSpecifier parses a single clause such as ">=1.2.0".
func ParseSpecifier(text string) (Specifier, error) {
	raw := strings.TrimSpace(text)
	m := specifierRE.FindStringSubmatch(raw)
	if m == nil {
		return Specifier{}, errors.New(errors.ErrCodeParse, "invalid specifier %q", text)
	}
	op, verText := m[1], m[2]
	if op == "===" {
		// Arbitrary equality compares raw strings; treat as exact equality
		// on the parsed version, which is what requirement files use it for.
		op = "=="
	}

	s := Specifier{Op: op, raw: op + verText}

	if strings.HasSuffix(verText, ".*") {
		if op != "==" && op != "!=" {
			return Specifier{}, errors.New(errors.ErrCodeParse,
				"invalid specifier %q: wildcard only valid with == or !=", text)
		}
		s.Wildcard = true
		verText = strings.TrimSuffix(verText, ".*")
	}

	v, err := Parse(verText)
	if err != nil {
		return Specifier{}, errors.New(errors.ErrCodeParse, "invalid specifier %q", text)
	}
	if op == "~=" {
		if len(v.Release) < 2 {
			return Specifier{}, errors.New(errors.ErrCodeParse,
				"invalid specifier %q: ~= requires at least two release segments", text)
		}
		if s.Wildcard {
			return Specifier{}, errors.New(errors.ErrCodeParse,
				"invalid specifier %q: ~= does not allow wildcards", text)
		}
	}
	s.Version = v
	return s, nil
}

// Match reports whether version v satisfies the specifier predicate.
func (s Specifier) Match(v Version) bool {
	switch s.Op {
	case "==":
		if s.Wildcard {
			return prefixMatch(v, s.Version)
		}
		return v.Compare(s.Version) == 0
	case "!=":
		if s.Wildcard {
			return !prefixMatch(v, s.Version)
		}
		return v.Compare(s.Version) != 0
	case ">=":
		return v.Compare(s.Version) >= 0
	case "<=":
		return v.Compare(s.Version) <= 0
	case ">":
		return v.Compare(s.Version) > 0
	case "<":
		return v.Compare(s.Version) < 0
	case "~=":
		// Compatible release: >=X.Y.Z and matching all but the last
		// release segment, e.g. ~=2.2 means >=2.2, ==2.*.
		if v.Compare(s.Version) < 0 {
			return false
		}
		prefix := s.Version
		prefix.Release = prefix.Release[:len(prefix.Release)-1]
		return prefixMatch(v, prefix)
	default:
		return false
	}
}

// String returns the canonical clause text, e.g. ">=1.2".
func (s Specifier) String() string {
	if s.raw != "" {
		return s.raw
	}
	if s.Wildcard {
		return s.Op + s.Version.String() + ".*"
	}
	return s.Op + s.Version.String()
}

// IsExactPin reports whether the specifier pins a single version (==
// without wildcard).
func (s Specifier) IsExactPin() bool {
	return s.Op == "==" && !s.Wildcard
}

// prefixMatch reports whether v's release starts with prefix's release
// segments (zero-padded) under the same epoch.
func prefixMatch(v Version, prefix Version) bool {
	if v.Epoch != prefix.Epoch {
		return false
	}
	for i, seg := range prefix.Release {
		got := 0
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != seg {
			return false
		}
	}
	return true
}

// SpecifierSet is an ordered set of specifiers implicitly ANDed together.
// The empty set accepts every version.
type SpecifierSet []Specifier

// ParseSet parses a comma-separated list of specifier clauses, e.g.
// ">=1.0,<2.0". Empty input yields the empty (accept-everything) set.
func ParseSet(text string) (SpecifierSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var set SpecifierSet
	for _, clause := range strings.Split(text, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		s, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, s)
	}
	return set, nil
}

// Contains reports whether v satisfies every specifier in the set.
func (set SpecifierSet) Contains(v Version) bool {
	for _, s := range set {
		if !s.Match(v) {
			return false
		}
	}
	return true
}

// Intersect returns the conjunction of two sets. Members are concatenated,
// not simplified algebraically; Contains evaluates them lazily.
func Intersect(a, b SpecifierSet) SpecifierSet {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(SpecifierSet, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// ExactPins returns the distinct exactly-pinned versions in the set.
// Two distinct pins make the set statically unsatisfiable.
func (set SpecifierSet) ExactPins() []Version {
	var pins []Version
	for _, s := range set {
		if !s.IsExactPin() {
			continue
		}
		dup := false
		for _, p := range pins {
			if p.Equal(s.Version) {
				dup = true
				break
			}
		}
		if !dup {
			pins = append(pins, s.Version)
		}
	}
	return pins
}

// PinsPrerelease reports whether the set exactly pins a pre-release
// version. Prerelease candidates are only admitted in that case.
func (set SpecifierSet) PinsPrerelease() bool {
	for _, s := range set {
		if s.IsExactPin() && s.Version.IsPrerelease() {
			return true
		}
	}
	return false
}

// String renders the set as comma-joined clauses; empty set renders as "".
func (set SpecifierSet) String() string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
