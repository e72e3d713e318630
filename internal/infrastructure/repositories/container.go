package repositories

import (
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/updatebot/internal/domain/repositories"
	dockerRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/docker"
	ghRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/gitlab"
	goRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/golang"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/gogit"
	makeRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/makefile"
	npmRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/npm"
	pipRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/pip"
	regexRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/regex"
	tfRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/terraform"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	constructors := []any{
		clockwork.NewRealClock,
		afero.NewOsFs,
		textfile.NewEditor,
		gogit.NewGitVersionControlRepository,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Register forge registry with all forge factories
	if err := container.Provide(func(clock clockwork.Clock) *ForgeRegistry {
		reg := NewForgeRegistry(clock)
		reg.Register("github", ghRepo.NewForgeRepository)
		reg.Register("gitlab", glRepo.NewForgeRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register updater registry with all updater implementations
	if err := container.Provide(func(editor *textfile.Editor) *UpdaterRegistry {
		reg := NewUpdaterRegistry()
		reg.Register(dockerRepo.NewDockerUpdaterRepository(editor))
		reg.Register(makeRepo.NewMakeUpdaterRepository(editor))
		reg.Register(tfRepo.NewTerraformUpdaterRepository(editor))
		reg.Register(goRepo.NewGoModUpdaterRepository(editor))
		reg.Register(npmRepo.NewNpmUpdaterRepository(editor))
		reg.Register(pipRepo.NewPipUpdaterRepository(editor))
		regex := regexRepo.NewRegexUpdaterRepository(editor)
		reg.Register(regex)
		reg.RegisterRegex(regex)
		return reg
	}); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *ForgeRegistry) domainRepos.ForgeConnector {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *gogit.GitVersionControlRepository) domainRepos.VersionControlRepository {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
