//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
	infraRepos "github.com/rios0rios0/updatebot/internal/infrastructure/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/docker"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
	"github.com/rios0rios0/updatebot/test/domain/entitybuilders"
	"github.com/rios0rios0/updatebot/test/infrastructure/repositorydoubles"
)

type engineFixture struct {
	engine *commands.DependencyValidationEngine
	docker *repositorydoubles.SpyUpdaterRepository
	vcs    *repositorydoubles.SpyVersionControlRepository
	cctx   *entities.CommandContext
}

func newEngineFixture(settings *entities.Settings) *engineFixture {
	docker := &repositorydoubles.SpyUpdaterRepository{UpdaterKind: entities.KindDocker}
	registry := infraRepos.NewUpdaterRegistry()
	registry.Register(docker)
	vcs := &repositorydoubles.SpyVersionControlRepository{}
	return &engineFixture{
		engine: commands.NewDependencyValidationEngine(registry, vcs),
		docker: docker,
		vcs:    vcs,
		cctx:   entities.NewCommandContext(settings.RepositoryTargets()[0], settings, nil),
	}
}

// snapshotVersionControl reverts the working tree to the files it was created with.
type snapshotVersionControl struct {
	*repositorydoubles.SpyVersionControlRepository
	fs    afero.Fs
	files map[string]string
}

func (s *snapshotVersionControl) RevertWorkingTree(ctx context.Context, repo entities.Repository) error {
	for path, content := range s.files {
		if err := afero.WriteFile(s.fs, path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return s.SpyVersionControlRepository.RevertWorkingTree(ctx, repo)
}

func TestDependencyValidationEnginePushWithoutChecks(t *testing.T) {
	t.Parallel()

	t.Run("should skip kinds without an updater", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())
		changes := []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
			entities.NewDependencyVersionChange("helm", "cert-manager", "1.14.0"),
		}

		// when
		changed, err := f.engine.PushWithoutChecks(context.Background(), f.cctx, changes)

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		require.Len(t, f.docker.PushCalls, 1)
		assert.Equal(t, changes[:1], f.docker.PushCalls[0])
	})

	t.Run("should report an updater failure", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())
		f.docker.PushErr = errors.New("permission denied")

		// when
		_, err := f.engine.PushWithoutChecks(context.Background(), f.cctx, []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
		})

		// then
		require.Error(t, err)
	})
}

func TestDependencyValidationEnginePushWithChecks(t *testing.T) {
	t.Parallel()

	nginx := entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3")
	redis := entities.NewDependencyVersionChange(entities.KindDocker, "redis", "7.2.4")

	t.Run("should not validate when checks are turned off", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx}, nil,
		)

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Nil(t, check)
		assert.Empty(t, f.docker.CheckCalls)
	})

	t.Run("should apply the pending changes together with the requested ones", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx}, []entities.DependencyVersionChange{redis},
		)

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		require.NotNil(t, check)
		assert.Equal(t, []entities.DependencyVersionChange{nginx, redis}, f.docker.PushCalls[0])
		assert.Equal(t, []entities.DependencyVersionChange{nginx, redis}, check.Valid)
		assert.Zero(t, f.vcs.RevertCalls)
	})

	t.Run("should revert and re-apply only the valid subset", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())
		f.docker.Invalid = map[string]string{"redis": "not published yet"}

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx, redis}, nil,
		)

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 1, f.vcs.RevertCalls)
		require.Len(t, f.docker.PushCalls, 2)
		assert.Equal(t, []entities.DependencyVersionChange{nginx}, f.docker.PushCalls[1])
		assert.Equal(t, []entities.DependencyVersionChange{redis}, check.Invalid)
		assert.Equal(t, "not published yet", check.Cause(redis))
	})

	t.Run("should keep only the edit of the valid change in the working tree", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings()
		cctx := entities.NewCommandContext(settings.RepositoryTargets()[0], settings, nil)
		dockerfile := cctx.Repository.Dir + "/Dockerfile"
		fs := afero.NewMemMapFs()
		original := "FROM nginx:1.24.0\nFROM redis:7.2.4\n"
		require.NoError(t, afero.WriteFile(fs, dockerfile, []byte(original), 0o644))
		vcs := &snapshotVersionControl{
			SpyVersionControlRepository: &repositorydoubles.SpyVersionControlRepository{},
			fs:                          fs,
			files:                       map[string]string{dockerfile: original},
		}
		registry := infraRepos.NewUpdaterRegistry()
		registry.Register(docker.NewDockerUpdaterRepository(textfile.NewEditor(fs)))
		engine := commands.NewDependencyValidationEngine(registry, vcs)
		downgrade := entities.NewDependencyVersionChange(entities.KindDocker, "redis", "7.0.0")

		// when
		changed, check, err := engine.PushWithChecks(
			context.Background(), cctx, []entities.DependencyVersionChange{nginx, downgrade}, nil,
		)

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 1, vcs.RevertCalls)
		assert.Equal(t, []entities.DependencyVersionChange{downgrade}, check.Invalid)
		content, readErr := afero.ReadFile(fs, dockerfile)
		require.NoError(t, readErr)
		assert.Equal(t, "FROM nginx:1.25.3\nFROM redis:7.2.4\n", string(content))
	})

	t.Run("should leave the tree reverted when every change is invalid", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())
		f.docker.Invalid = map[string]string{"nginx": "downgrade"}

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx}, nil,
		)

		// then
		require.NoError(t, err)
		assert.False(t, changed)
		require.NotNil(t, check)
		assert.Equal(t, 1, f.vcs.RevertCalls)
		assert.Len(t, f.docker.PushCalls, 1)
	})

	t.Run("should still return the check when the valid subset changes nothing", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())
		f.docker.Invalid = map[string]string{"redis": "not published yet"}
		f.docker.PushResults = []bool{true, false}

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx, redis}, nil,
		)

		// then
		require.NoError(t, err)
		assert.False(t, changed)
		require.NotNil(t, check)
		assert.Equal(t, []entities.DependencyVersionChange{redis}, check.Invalid)
	})

	t.Run("should not validate when nothing changed", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())
		f.docker.NoChanges = true

		// when
		changed, check, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx}, nil,
		)

		// then
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Nil(t, check)
		assert.Empty(t, f.docker.CheckCalls)
	})

	t.Run("should fail when the revert fails", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().WithCheckDependencies().BuildSettings())
		f.docker.Invalid = map[string]string{"nginx": "downgrade"}
		f.vcs.RevertErr = errors.New("locked index")

		// when
		changed, _, err := f.engine.PushWithChecks(
			context.Background(), f.cctx, []entities.DependencyVersionChange{nginx}, nil,
		)

		// then
		require.Error(t, err)
		assert.False(t, changed)
	})
}

func TestDependencyValidationEngineCheck(t *testing.T) {
	t.Parallel()

	t.Run("should reject changes of an unknown kind", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())
		helm := entities.NewDependencyVersionChange("helm", "cert-manager", "1.14.0")

		// when
		check, err := f.engine.Check(context.Background(), f.cctx, []entities.DependencyVersionChange{helm})

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.DependencyVersionChange{helm}, check.Invalid)
		assert.NotEmpty(t, check.Cause(helm))
	})

	t.Run("should fail when a checker forgets a verdict", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())
		f.docker.SkipVerdicts = map[string]bool{"nginx": true}

		// when
		_, err := f.engine.Check(context.Background(), f.cctx, []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
		})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no verdict")
	})

	t.Run("should report a checker failure", func(t *testing.T) {
		t.Parallel()

		// given
		f := newEngineFixture(entitybuilders.NewSettingsBuilder().BuildSettings())
		f.docker.CheckErr = errors.New("registry unreachable")

		// when
		_, err := f.engine.Check(context.Background(), f.cctx, []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
		})

		// then
		require.Error(t, err)
	})
}
