package textfile

import (
	"sync"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// PreviousVersions remembers the version an updater replaced, per working copy,
// so the checker of the same kind can detect downgrades afterwards.
type PreviousVersions struct {
	mu       sync.Mutex
	versions map[string]string
}

// NewPreviousVersions creates an empty memory.
func NewPreviousVersions() *PreviousVersions {
	return &PreviousVersions{versions: make(map[string]string)}
}

// Record overwrites the version replaced for change in dir.
func (p *PreviousVersions) Record(dir string, change entities.DependencyVersionChange, version string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions[dir+"|"+change.Key()] = version
}

// Clear forgets every recorded version.
func (p *PreviousVersions) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions = make(map[string]string)
}

// Enrich fills the OldVersion of change when it is unknown.
func (p *PreviousVersions) Enrich(dir string, change entities.DependencyVersionChange) entities.DependencyVersionChange {
	if change.OldVersion != "" {
		return change
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	change.OldVersion = p.versions[dir+"|"+change.Key()]
	return change
}

// Check runs the semver check on the enriched changes but reports verdicts
// against the changes as requested.
func (p *PreviousVersions) Check(
	dir string,
	kind entities.Kind,
	changes []entities.DependencyVersionChange,
) entities.KindDependenciesCheck {
	result := entities.NewKindDependenciesCheck(kind)
	for _, change := range changes {
		verdict := entities.SemverCheck(kind, []entities.DependencyVersionChange{p.Enrich(dir, change)})
		if len(verdict.Invalid) > 0 {
			result.Reject(change, verdict.Causes[verdict.Invalid[0].Key()])
			continue
		}
		result.Accept(change)
	}
	return result
}
