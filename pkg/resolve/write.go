package resolve

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/matzehuels/reqsolver/pkg/errors"
)

// WriteRequirements serializes a resolved assignment as pinned
// requirement lines, one "name==version" per line, sorted by package
// name.
func WriteRequirements(w io.Writer, a Assignment) error {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s==%s\n", name, a[name]); err != nil {
			return err
		}
	}
	return nil
}

// WriteRequirementsFile writes the assignment of a resolved report to
// path. Calling it with a failed report is a programming error and fails
// without touching the file.
func WriteRequirementsFile(path string, report *Report) error {
	if !report.Resolved() {
		return errors.New(errors.ErrCodeInternal, "refusing to write output for failed report")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRequirements(f, report.Assignment); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
