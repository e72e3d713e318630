package repositories

import (
	"sort"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	domainRepos "github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// UpdaterRegistry manages all registered dependency updater implementations.
type UpdaterRegistry struct {
	updaters map[entities.Kind]domainRepos.UpdaterRepository
	regex    domainRepos.RegexUpdaterRepository
}

// NewUpdaterRegistry creates an empty updater registry.
func NewUpdaterRegistry() *UpdaterRegistry {
	return &UpdaterRegistry{
		updaters: make(map[entities.Kind]domainRepos.UpdaterRepository),
	}
}

// Register adds an updater under its kind.
func (r *UpdaterRegistry) Register(u domainRepos.UpdaterRepository) {
	r.updaters[u.Kind()] = u
}

// RegisterRegex sets the updater used by regex pushes.
func (r *UpdaterRegistry) RegisterRegex(u domainRepos.RegexUpdaterRepository) {
	r.regex = u
}

// Get returns the updater of the given kind, or nil if not registered.
func (r *UpdaterRegistry) Get(kind entities.Kind) domainRepos.UpdaterRepository {
	return r.updaters[kind]
}

// Regex returns the regex updater, or nil if not registered.
func (r *UpdaterRegistry) Regex() domainRepos.RegexUpdaterRepository {
	return r.regex
}

// Kinds returns the registered kinds, sorted.
func (r *UpdaterRegistry) Kinds() []entities.Kind {
	kinds := make([]entities.Kind, 0, len(r.updaters))
	for kind := range r.updaters {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Reset clears the state every pass scoped updater kept from the previous pass.
func (r *UpdaterRegistry) Reset() {
	for _, u := range r.updaters {
		if scoped, ok := u.(domainRepos.PassScopedRepository); ok {
			scoped.Reset()
		}
	}
}
