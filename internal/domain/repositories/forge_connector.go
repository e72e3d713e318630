package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

var errNoForge = errors.New("no forge configured")

// Forges maps provider names to connected forges.
type Forges map[string]ForgeRepository

// For returns the forge hosting the repository.
func (f Forges) For(repo entities.Repository) (ForgeRepository, error) {
	if forge, ok := f[repo.ProviderName]; ok {
		return forge, nil
	}
	for _, forge := range f {
		if forge.MatchesURL(repo.CloneURL) {
			return forge, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", errNoForge, repo.CloneURL)
}

// IsNoForge reports whether err was returned because no forge hosts a repository.
func IsNoForge(err error) bool {
	return errors.Is(err, errNoForge)
}

// ForgeConnector authenticates against every forge named in the settings.
type ForgeConnector interface {
	Connect(ctx context.Context, settings *entities.Settings) (Forges, error)
}
