package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/updatebot/internal/infrastructure/repositories"
)

const causeNoUpdater = "no updater registered for kind"

// DependencyValidationEngine applies version changes through the kind updaters and
// splits them into valid and invalid ones.
type DependencyValidationEngine struct {
	updaters *infraRepos.UpdaterRegistry
	vcs      repositories.VersionControlRepository
}

// NewDependencyValidationEngine creates an engine dispatching to the registered updaters.
func NewDependencyValidationEngine(
	updaters *infraRepos.UpdaterRegistry,
	vcs repositories.VersionControlRepository,
) *DependencyValidationEngine {
	return &DependencyValidationEngine{updaters: updaters, vcs: vcs}
}

// Reset drops what the updaters remembered from the previous pass.
func (it *DependencyValidationEngine) Reset() {
	it.updaters.Reset()
}

// PushWithoutChecks applies every change to the working copy, grouped by kind.
// It returns true when any file was modified.
func (it *DependencyValidationEngine) PushWithoutChecks(
	ctx context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	answer := false
	for _, group := range entities.ByKind(changes) {
		updater := it.updaters.Get(group.Kind)
		if updater == nil {
			logger.Warnf("%s No updater registered for kind %s, skipping %s",
				cctx.LogPrefix(), group.Kind, entities.DescribeChanges(group.Changes))
			continue
		}

		changed, err := updater.PushVersions(ctx, cctx, group.Changes)
		if err != nil {
			return false, fmt.Errorf("failed to push %s versions: %w", group.Kind, err)
		}
		if changed {
			answer = true
		}
	}
	return answer, nil
}

// Check asks each kind checker for its verdicts and ensures every change got exactly one.
func (it *DependencyValidationEngine) Check(
	ctx context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (*entities.DependenciesCheck, error) {
	check := &entities.DependenciesCheck{}
	for _, group := range entities.ByKind(changes) {
		updater := it.updaters.Get(group.Kind)
		if updater == nil {
			kindCheck := entities.NewKindDependenciesCheck(group.Kind)
			for _, change := range group.Changes {
				kindCheck.Reject(change, causeNoUpdater)
			}
			check.Add(kindCheck)
			continue
		}

		kindCheck, err := updater.CheckDependencies(ctx, cctx, group.Changes)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s dependencies: %w", group.Kind, err)
		}
		check.Add(kindCheck)
	}

	if err := check.Verify(changes); err != nil {
		return nil, err
	}
	return check, nil
}

// PushWithChecks applies the requested changes together with the pending ones.
// When some of them are invalid the working tree is reverted and only the valid
// subset is applied again, so an invalid change never reaches a commit.
// The returned check is nil when no validation happened.
func (it *DependencyValidationEngine) PushWithChecks(
	ctx context.Context,
	cctx *entities.CommandContext,
	requested []entities.DependencyVersionChange,
	pending []entities.DependencyVersionChange,
) (bool, *entities.DependenciesCheck, error) {
	steps := entities.CombinePendingChanges(requested, pending)

	answer, err := it.PushWithoutChecks(ctx, cctx, steps)
	if err != nil || !answer {
		return false, nil, err
	}
	if !cctx.Settings.CheckDependencies {
		return true, nil, nil
	}

	check, err := it.Check(ctx, cctx, steps)
	if err != nil {
		return false, nil, err
	}

	if len(check.Invalid) > 0 {
		logger.Infof("%s Reverting changes as %s are invalid",
			cctx.LogPrefix(), entities.DescribeChanges(check.Invalid))
		if err = it.vcs.RevertWorkingTree(ctx, cctx.Repository); err != nil {
			return false, check, fmt.Errorf("failed to revert %s: %w", cctx.Repository.Dir, err)
		}

		if len(check.Valid) > 0 {
			changed, pushErr := it.PushWithoutChecks(ctx, cctx, check.Valid)
			if pushErr != nil {
				return false, check, pushErr
			}
			if !changed {
				logger.Warnf("%s Attempted to apply the subset of valid changes %s but no files were modified!",
					cctx.LogPrefix(), entities.DescribeChanges(check.Valid))
				return false, check, nil
			}
		}
	}
	return len(check.Valid) > 0, check, nil
}
