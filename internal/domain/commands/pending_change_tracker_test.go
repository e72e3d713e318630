//go:build unit

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/test/domain/entitybuilders"
	"github.com/rios0rios0/updatebot/test/infrastructure/repositorydoubles"
)

func invalidCheck(invalid ...entities.DependencyVersionChange) *entities.DependenciesCheck {
	kindCheck := entities.NewKindDependenciesCheck(entities.KindDocker)
	for _, change := range invalid {
		kindCheck.Reject(change, "not published yet")
	}
	check := &entities.DependenciesCheck{}
	check.Add(kindCheck)
	return check
}

func trackerContext(settings *entities.Settings) *entities.CommandContext {
	return entities.NewCommandContext(
		settings.RepositoryTargets()[0],
		settings,
		entities.NewPushVersionsDescriber([]entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
		}),
	)
}

func TestPendingChangeTrackerLoad(t *testing.T) {
	t.Parallel()

	redis := entities.NewDependencyVersionChange(entities.KindDocker, "redis", "7.2.4")

	t.Run("should return nothing without a tracking issue", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		forge.Issues = []entities.Issue{{Number: 1, Title: "unrelated bug"}}
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())

		// when
		pending, err := commands.NewPendingChangeTracker().Load(context.Background(), forge, cctx)

		// then
		require.NoError(t, err)
		assert.Empty(t, pending)
		assert.Nil(t, cctx.Issue)
	})

	t.Run("should load the newest pending set from the tracking issue", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		body, err := entities.PendingIssueBody("pushing versions", invalidCheck(redis))
		require.NoError(t, err)
		forge.Issues = []entities.Issue{{Number: 5, Title: entities.PendingIssueTitle, Body: body}}
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())

		// when
		pending, err := commands.NewPendingChangeTracker().Load(context.Background(), forge, cctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.DependencyVersionChange{redis}, pending)
		require.NotNil(t, cctx.Issue)
		assert.Equal(t, int64(5), cctx.Issue.Number)
	})
}

func TestPendingChangeTrackerUpdate(t *testing.T) {
	t.Parallel()

	redis := entities.NewDependencyVersionChange(entities.KindDocker, "redis", "7.2.4")
	postgres := entities.NewDependencyVersionChange(entities.KindDocker, "postgres", "16.2")

	t.Run("should open a labelled issue for new pending changes", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())

		// when
		outcome, err := commands.NewPendingChangeTracker().Update(
			context.Background(), forge, cctx, invalidCheck(redis), nil,
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.IssueOpened, outcome)
		assert.Equal(t, entities.IssueOpened, cctx.IssueOutcome)
		require.Len(t, forge.IssueInputs, 1)
		assert.Equal(t, entities.PendingIssueTitle, forge.IssueInputs[0].Title)
		assert.Equal(t, []string{entities.DefaultPullRequestLabel}, forge.IssueInputs[0].Labels)
		require.NotNil(t, cctx.Issue)
	})

	t.Run("should not touch the issue when the pending set is unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())
		cctx.Issue = &entities.Issue{Number: 5}

		// when
		outcome, err := commands.NewPendingChangeTracker().Update(
			context.Background(), forge, cctx, invalidCheck(redis), []entities.DependencyVersionChange{redis},
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.IssueUnchanged, outcome)
		assert.Empty(t, forge.IssueComments[5])
		assert.Empty(t, forge.IssueInputs)
	})

	t.Run("should comment the new pending set on the existing issue", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())
		cctx.Issue = &entities.Issue{Number: 5}

		// when
		outcome, err := commands.NewPendingChangeTracker().Update(
			context.Background(), forge, cctx, invalidCheck(redis, postgres), []entities.DependencyVersionChange{redis},
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.IssueUpdated, outcome)
		require.Len(t, forge.IssueComments[5], 1)
		pending, found, err := entities.LatestPendingChanges("", forge.IssueComments[5])
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []entities.DependencyVersionChange{redis, postgres}, pending)
	})

	t.Run("should close the issue once nothing is pending and never reopen it in the same pass", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		forge.Issues = []entities.Issue{{Number: 5, Title: entities.PendingIssueTitle}}
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().BuildSettings())
		cctx.Issue = &entities.Issue{Number: 5}
		tracker := commands.NewPendingChangeTracker()

		// when
		closed, closeErr := tracker.Update(
			context.Background(), forge, cctx, invalidCheck(), []entities.DependencyVersionChange{redis},
		)
		reopened, reopenErr := tracker.Update(context.Background(), forge, cctx, invalidCheck(postgres), nil)

		// then
		require.NoError(t, closeErr)
		require.NoError(t, reopenErr)
		assert.Equal(t, entities.IssueClosed, closed)
		assert.Equal(t, entities.IssueUnchanged, reopened)
		assert.Equal(t, []int64{5}, forge.ClosedIssues)
		require.Len(t, forge.IssueComments[5], 1)
		assert.Empty(t, forge.IssueInputs)
		assert.True(t, cctx.IssueClosedThisPass())
	})

	t.Run("should only log in dry-run", func(t *testing.T) {
		t.Parallel()

		// given
		forge := repositorydoubles.NewSpyForgeRepository()
		cctx := trackerContext(entitybuilders.NewSettingsBuilder().WithDryRun().BuildSettings())

		// when
		outcome, err := commands.NewPendingChangeTracker().Update(
			context.Background(), forge, cctx, invalidCheck(redis), nil,
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.IssueUnchanged, outcome)
		assert.Empty(t, forge.IssueInputs)
	})
}
