package output

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns the unified diff turning before into after, or an
// empty string when they are equal.
func UnifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (formatted)",
		Context:  3,
	})
}

// Diff writes the unified diff of a file, colored by line kind.
func (r *Renderer) Diff(path, before, after string) error {
	d, err := UnifiedDiff(path, before, after)
	if err != nil || d == "" {
		return err
	}
	for _, line := range strings.SplitAfter(d, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = r.styles.Header.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = r.styles.HunkHead.Render(text)
		case strings.HasPrefix(text, "+"):
			text = r.styles.Added.Render(text)
		case strings.HasPrefix(text, "-"):
			text = r.styles.Removed.Render(text)
		}
		r.Println(text)
	}
	return nil
}
