// Package requirements parses pip-style requirement files and aggregates
// the parsed declarations into per-package constraints.
//
// Parsing accepts the common requirements.txt line format: a package name
// optionally followed by extras and a comma-separated specifier list.
// Comments, blank lines, pip flags (-r, -e, --hash, ...) and URL/VCS
// references are skipped. Malformed specifier text fails with a
// PARSE_ERROR attributed to file and line.
package requirements

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/reqsolver/pkg/errors"
	"github.com/matzehuels/reqsolver/pkg/pep440"
)

// lineRE captures a requirement line: name, optional extras, optional
// specifier tail.
var lineRE = regexp.MustCompile(`^([a-zA-Z0-9][a-zA-Z0-9_.-]*)\s*(?:\[[^\]]*\])?\s*((?:[<>=!~].*)?)$`)

// Requirement is one parsed declaration: a normalized package name, the
// specifier set constraining it, and the source it came from. Immutable
// once parsed.
type Requirement struct {
	Name       string
	Specifiers pep440.SpecifierSet
	Source     string // file path or reader label
	Line       int    // 1-based line number in Source
}

// NormalizeName converts a package name to its canonical form following
// PEP 503: lowercase, with runs of "-", "_" and "." collapsed to "-".
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	sep := false
	for _, r := range name {
		if r == '-' || r == '_' || r == '.' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// ParseFile parses one requirements file.
func ParseFile(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ParseReader(f, filepath.Base(path))
}

// ParseFiles parses every file in order and returns the concatenated
// requirements. The first parse failure aborts the whole run.
func ParseFiles(paths []string) ([]Requirement, error) {
	var all []Requirement
	for _, path := range paths {
		reqs, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

// ParseReader parses requirement lines from r, attributing errors to the
// given source label.
func ParseReader(r io.Reader, source string) ([]Requirement, error) {
	var reqs []Requirement

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()

		// Strip comments and environment markers before matching.
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		if i := strings.Index(text, ";"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)

		if text == "" || text[0] == '-' {
			continue
		}
		if strings.Contains(text, "://") || strings.HasPrefix(text, "git+") {
			continue
		}

		m := lineRE.FindStringSubmatch(text)
		if m == nil {
			return nil, errors.New(errors.ErrCodeParse, "%s:%d: invalid requirement %q", source, line, text)
		}

		set, err := pep440.ParseSet(m[2])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "%s:%d: invalid requirement %q", source, line, text)
		}

		reqs = append(reqs, Requirement{
			Name:       NormalizeName(m[1]),
			Specifiers: set,
			Source:     source,
			Line:       line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", source)
	}
	return reqs, nil
}
