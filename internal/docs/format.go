package docs

import (
	"fmt"
	"strings"
)

// requiredSections are the seven headings every generated document must
// carry, in this order. The model is instructed to produce them; this
// file enforces what the model promised.
var requiredSections = []string{
	"## 1. Overview",
	"## 2. Key Components",
	"## 3. Parameters/Arguments",
	"## 4. Return Values",
	"## 5. Dependencies",
	"## 6. Usage Examples",
	"## 7. Best Practices",
}

// normalize validates and repairs the generated documentation:
//
//   - The first heading is rewritten to "# Documentation: `<file>`"
//     (inserted at the top if the model produced no H1 at all).
//   - Missing required sections are reported back as the second return
//     value so the caller can log them. They are NOT auto-filled —
//     fabricating an empty "## 4. Return Values" would be worse than
//     an honest gap.
//   - A "---" separator is ensured before every section heading after
//     the first, so sections render visually separated.
func normalize(content, fileName string) (string, []string) {
	title := fmt.Sprintf("# Documentation: `%s`", fileName)

	lines := strings.Split(content, "\n")

	if !strings.HasPrefix(content, title) {
		replaced := false
		for i, line := range lines {
			if strings.HasPrefix(line, "# ") {
				lines[i] = title
				replaced = true
				break
			}
		}
		if !replaced {
			lines = append([]string{title, ""}, lines...)
		}
	}

	var missing []string
	joined := strings.Join(lines, "\n")
	for _, section := range requiredSections {
		if !strings.Contains(joined, section) {
			missing = append(missing, section)
		}
	}

	return ensureSeparators(lines), missing
}

// ensureSeparators inserts a "---" line (blank-padded) before each
// required section heading except the first, unless one is already the
// last non-empty line above it.
func ensureSeparators(lines []string) string {
	isSection := func(line string) bool {
		for _, s := range requiredSections {
			if strings.HasPrefix(line, s) {
				return true
			}
		}
		return false
	}

	out := make([]string, 0, len(lines))
	seenFirst := false
	for _, line := range lines {
		if isSection(line) {
			if seenFirst && lastNonEmpty(out) != "---" {
				out = append(out, "", "---", "")
			}
			seenFirst = true
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func lastNonEmpty(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
