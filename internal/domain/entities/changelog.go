package entities

import (
	"fmt"
	"strings"
)

const (
	unreleasedHeading = "## [Unreleased]"
	changedHeading    = "### Changed"
)

// ChangelogEntries renders one Keep-a-Changelog bullet per applied change.
func ChangelogEntries(changes []DependencyVersionChange) []string {
	entries := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.OldVersion != "" {
			entries = append(entries, fmt.Sprintf("- bumped `%s` from `%s` to `%s`", c.Dependency, c.OldVersion, c.NewVersion))
			continue
		}
		entries = append(entries, fmt.Sprintf("- bumped `%s` to `%s`", c.Dependency, c.NewVersion))
	}
	return entries
}

// InsertChangelogEntry adds entries under "### Changed" of the "## [Unreleased]" section.
// Content without an Unreleased section is returned unchanged; entries already
// present are not added twice.
func InsertChangelogEntry(content string, entries []string) string {
	lines := strings.Split(content, "\n")

	unreleased := indexOfLine(lines, 0, len(lines), unreleasedHeading)
	if unreleased < 0 {
		return content
	}
	sectionEnd := len(lines)
	for i := unreleased + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
			sectionEnd = i
			break
		}
	}

	var missing []string
	for _, entry := range entries {
		if indexOfLine(lines, unreleased, sectionEnd, entry) < 0 {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return content
	}

	changed := indexOfLine(lines, unreleased, sectionEnd, changedHeading)
	if changed < 0 {
		block := append([]string{"", changedHeading, ""}, missing...)
		return strings.Join(splice(lines, unreleased+1, block), "\n")
	}

	// append after the last bullet of the Changed subsection
	at := changed + 1
	for i := changed + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "- ") {
			at = i + 1
			continue
		}
		if trimmed != "" {
			break
		}
	}
	return strings.Join(splice(lines, at, missing), "\n")
}

func indexOfLine(lines []string, from, to int, want string) int {
	for i := from; i < to; i++ {
		if strings.TrimSpace(lines[i]) == want {
			return i
		}
	}
	return -1
}

func splice(lines []string, at int, extra []string) []string {
	result := make([]string, 0, len(lines)+len(extra))
	result = append(result, lines[:at]...)
	result = append(result, extra...)
	return append(result, lines[at:]...)
}
