package entities

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// KindDependenciesCheck is the verdict of one ecosystem checker.
type KindDependenciesCheck struct {
	Kind    Kind
	Valid   []DependencyVersionChange
	Invalid []DependencyVersionChange
	Causes  map[string]string // change key -> reason it was rejected
}

// NewKindDependenciesCheck creates an empty verdict for the given kind.
func NewKindDependenciesCheck(kind Kind) KindDependenciesCheck {
	return KindDependenciesCheck{Kind: kind, Causes: make(map[string]string)}
}

// Reject records an invalid change together with its cause.
func (k *KindDependenciesCheck) Reject(change DependencyVersionChange, cause string) {
	k.Invalid = append(k.Invalid, change)
	if k.Causes == nil {
		k.Causes = make(map[string]string)
	}
	k.Causes[change.Key()] = cause
}

// Accept records a valid change.
func (k *KindDependenciesCheck) Accept(change DependencyVersionChange) {
	k.Valid = append(k.Valid, change)
}

// DependenciesCheck aggregates the verdicts of every ecosystem.
type DependenciesCheck struct {
	Valid   []DependencyVersionChange
	Invalid []DependencyVersionChange
	ByKind  []KindDependenciesCheck
}

// Cause returns the reason a change was rejected, if any.
func (d *DependenciesCheck) Cause(change DependencyVersionChange) string {
	for _, k := range d.ByKind {
		if cause, ok := k.Causes[change.Key()]; ok {
			return cause
		}
	}
	return ""
}

// Add appends one ecosystem's verdict.
func (d *DependenciesCheck) Add(kindCheck KindDependenciesCheck) {
	d.Valid = append(d.Valid, kindCheck.Valid...)
	d.Invalid = append(d.Invalid, kindCheck.Invalid...)
	d.ByKind = append(d.ByKind, kindCheck)
}

// Verify ensures every requested change got exactly one verdict.
func (d *DependenciesCheck) Verify(requested []DependencyVersionChange) error {
	expected := make(map[string]int, len(requested))
	for _, c := range requested {
		expected[c.Key()]++
	}
	verdicts := make(map[string]int, len(requested))
	for _, c := range d.Valid {
		verdicts[c.Key()]++
	}
	for _, c := range d.Invalid {
		verdicts[c.Key()]++
	}

	var problems []string
	for _, c := range requested {
		key := c.Key()
		want, ok := expected[key]
		if !ok {
			continue // already reported
		}
		switch got := verdicts[key]; {
		case got == 0:
			problems = append(problems, key+" has no verdict")
		case got > want:
			problems = append(problems, key+" has more than one verdict")
		case got < want:
			problems = append(problems, key+" is missing verdicts")
		}
		delete(expected, key)
		delete(verdicts, key)
	}
	unrequested := make([]string, 0, len(verdicts))
	for key := range verdicts {
		unrequested = append(unrequested, key)
	}
	sort.Strings(unrequested)
	for _, key := range unrequested {
		problems = append(problems, key+" was not requested")
	}

	if len(problems) > 0 {
		return fmt.Errorf("inconsistent dependency check: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SemverCheck rejects empty target versions and semantic-version downgrades.
// Versions that are not semver are accepted as-is.
func SemverCheck(kind Kind, changes []DependencyVersionChange) KindDependenciesCheck {
	result := NewKindDependenciesCheck(kind)
	for _, change := range changes {
		if strings.TrimSpace(change.NewVersion) == "" {
			result.Reject(change, "no target version given")
			continue
		}
		if IsDowngrade(change.OldVersion, change.NewVersion) {
			result.Reject(change, fmt.Sprintf("%s is older than %s", change.NewVersion, change.OldVersion))
			continue
		}
		result.Accept(change)
	}
	return result
}

// IsDowngrade reports whether newVersion is semantically older than currentVersion.
func IsDowngrade(currentVersion, newVersion string) bool {
	if currentVersion == "" {
		return false
	}
	current := normalizeVersion(currentVersion)
	next := normalizeVersion(newVersion)
	if !semver.IsValid(current) || !semver.IsValid(next) {
		return false
	}
	return semver.Compare(next, current) < 0
}

// normalizeVersion ensures version has 'v' prefix for semver compatibility
func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
