package textfile

import "strings"

// ReplaceVersionLine sets the version held by a runtime version file such as
// .python-version or .nvmrc: the first line that is neither blank nor a comment.
// A leading "v" on the current version is kept. record receives the replaced
// version and may be nil.
func ReplaceVersionLine(lines []string, version string, record func(string)) bool {
	for i, line := range lines {
		current := strings.TrimSpace(line)
		if current == "" || strings.HasPrefix(current, "#") {
			continue
		}

		next := strings.TrimPrefix(version, "v")
		if strings.HasPrefix(current, "v") {
			next = "v" + next
		}
		if current == next {
			return false
		}
		if record != nil {
			record(current)
		}
		lines[i] = next
		return true
	}
	return false
}
