package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a dependency ecosystem (Docker images, Makefile variables, ...).
type Kind string

const (
	KindDocker    Kind = "docker"
	KindMake      Kind = "make"
	KindTerraform Kind = "terraform"
	KindRegex     Kind = "regex"
	KindGo        Kind = "go"
	KindNpm       Kind = "npm"
	KindPip       Kind = "pip"
)

// DependencyVersionChange is a single requested version bump.
// Two changes describe the same dependency when their Key matches,
// regardless of the versions they carry.
type DependencyVersionChange struct {
	Kind       Kind   `json:"kind"                 yaml:"kind"`
	Dependency string `json:"dependency"           yaml:"dependency"`
	OldVersion string `json:"oldVersion,omitempty" yaml:"old_version,omitempty"`
	NewVersion string `json:"newVersion"           yaml:"new_version"`
}

// NewDependencyVersionChange creates a change with no known previous version.
func NewDependencyVersionChange(kind Kind, dependency, newVersion string) DependencyVersionChange {
	return DependencyVersionChange{Kind: kind, Dependency: dependency, NewVersion: newVersion}
}

// Key is the dedup identity of the change.
func (c DependencyVersionChange) Key() string {
	return string(c.Kind) + "/" + c.Dependency
}

// SameDependency reports whether both changes target the same dependency.
func (c DependencyVersionChange) SameDependency(other DependencyVersionChange) bool {
	return c.Key() == other.Key()
}

func (c DependencyVersionChange) String() string {
	if c.OldVersion != "" {
		return fmt.Sprintf("%s %s %s -> %s", c.Kind, c.Dependency, c.OldVersion, c.NewVersion)
	}
	return fmt.Sprintf("%s %s %s", c.Kind, c.Dependency, c.NewVersion)
}

// KindChanges is the slice of changes belonging to one ecosystem.
type KindChanges struct {
	Kind    Kind
	Changes []DependencyVersionChange
}

// ByKind groups the changes per ecosystem, keeping kinds in first-seen order
// so callers iterate deterministically.
func ByKind(changes []DependencyVersionChange) []KindChanges {
	var groups []KindChanges
	index := make(map[Kind]int)
	for _, change := range changes {
		i, ok := index[change.Kind]
		if !ok {
			i = len(groups)
			index[change.Kind] = i
			groups = append(groups, KindChanges{Kind: change.Kind})
		}
		groups[i].Changes = append(groups[i].Changes, change)
	}
	return groups
}

// HasDependency reports whether the list already holds a change for the same dependency.
func HasDependency(changes []DependencyVersionChange, change DependencyVersionChange) bool {
	for _, c := range changes {
		if c.SameDependency(change) {
			return true
		}
	}
	return false
}

// CombinePendingChanges returns the current changes followed by every pending
// change whose dependency is not already part of the current ones.
func CombinePendingChanges(current, pending []DependencyVersionChange) []DependencyVersionChange {
	if len(pending) == 0 {
		return current
	}
	combined := make([]DependencyVersionChange, 0, len(current)+len(pending))
	combined = append(combined, current...)
	for _, p := range pending {
		if !HasDependency(current, p) {
			combined = append(combined, p)
		}
	}
	return combined
}

// EqualChanges compares two change sets by value, ignoring order.
func EqualChanges(a, b []DependencyVersionChange) bool {
	if len(a) != len(b) {
		return false
	}
	left := sortedCopy(a)
	right := sortedCopy(b)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func sortedCopy(changes []DependencyVersionChange) []DependencyVersionChange {
	out := make([]DependencyVersionChange, len(changes))
	copy(out, changes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key() != out[j].Key() {
			return out[i].Key() < out[j].Key()
		}
		return out[i].NewVersion < out[j].NewVersion
	})
	return out
}

// DescribeChanges renders a short, human-readable summary of the changes.
func DescribeChanges(changes []DependencyVersionChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.Dependency+" "+c.NewVersion)
	}
	return strings.Join(parts, ", ")
}

// ParseDependencyVersionChanges parses "name version" argument pairs for the given kind.
func ParseDependencyVersionChanges(kind Kind, args []string) ([]DependencyVersionChange, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected pairs of <dependency> <version>, got %d arguments", len(args))
	}
	changes := make([]DependencyVersionChange, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		changes = append(changes, NewDependencyVersionChange(kind, args[i], args[i+1]))
	}
	return changes, nil
}
