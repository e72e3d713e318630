package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// PushVersions is the interface for the push-version command.
type PushVersions interface {
	Execute(
		ctx context.Context, settings *entities.Settings, changes []entities.DependencyVersionChange,
	) (*entities.ParentContext, error)
}

// PushVersionsCommand pushes dependency versions into every configured repository,
// tracking the invalid ones on an issue.
type PushVersionsCommand struct {
	connector  repositories.ForgeConnector
	reconciler Reconciler
	engine     *DependencyValidationEngine
	tracker    *PendingChangeTracker
}

// NewPushVersionsCommand creates a new PushVersionsCommand.
func NewPushVersionsCommand(
	connector repositories.ForgeConnector,
	reconciler Reconciler,
	engine *DependencyValidationEngine,
	tracker *PendingChangeTracker,
) *PushVersionsCommand {
	return &PushVersionsCommand{
		connector:  connector,
		reconciler: reconciler,
		engine:     engine,
		tracker:    tracker,
	}
}

// Execute processes every repository and returns their contexts in order.
func (it *PushVersionsCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	changes []entities.DependencyVersionChange,
) (*entities.ParentContext, error) {
	it.Reset()
	logger.Infof("Pushing versions %s", entities.DescribeChanges(changes))
	return processFleet(ctx, it.connector, settings, entities.NewPushVersionsDescriber(changes),
		func(ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext) error {
			return it.process(ctx, forge, cctx, changes, nil)
		})
}

// Reset clears the default branches and replaced versions of the previous pass.
func (it *PushVersionsCommand) Reset() {
	resetPass(it.reconciler, it.engine)
}

// Replay applies the stored changes again onto an existing pull request.
func (it *PushVersionsCommand) Replay(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) error {
	return it.process(ctx, forge, cctx, cctx.Describer.Replay().Changes, pr)
}

func (it *PushVersionsCommand) process(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
	pr *entities.PullRequest,
) error {
	pending, err := it.tracker.Load(ctx, forge, cctx)
	if err != nil {
		return err
	}
	if err = it.reconciler.PrepareDirectory(ctx, forge, cctx); err != nil {
		return err
	}

	changed, check, err := it.engine.PushWithChecks(ctx, cctx, changes, pending)
	if err != nil {
		return err
	}

	var reconcileErr error
	if changed {
		applied := entities.CombinePendingChanges(changes, pending)
		if check != nil {
			applied = check.Valid
		}
		if describer, ok := cctx.Describer.(*entities.PushVersionsDescriber); ok {
			cctx.Describer = describer.WithApplied(applied)
		}
		if err = recordChangelog(cctx, applied); err != nil {
			return err
		}

		if pr != nil {
			_, reconcileErr = it.reconciler.ProcessPullRequest(ctx, forge, cctx, pr)
		} else {
			_, reconcileErr = it.reconciler.Reconcile(ctx, forge, cctx)
		}
	} else {
		logger.Infof("%s No files were modified", cctx.LogPrefix())
	}

	var trackErr error
	if check != nil {
		_, trackErr = it.tracker.Update(ctx, forge, cctx, check, pending)
	}
	return errors.Join(reconcileErr, trackErr)
}

// recordChangelog lists the applied changes in the changelog of the working copy, when configured.
func recordChangelog(cctx *entities.CommandContext, applied []entities.DependencyVersionChange) error {
	name := cctx.Settings.Changelog
	if name == "" || len(applied) == 0 {
		return nil
	}

	path := filepath.Join(cctx.Repository.Dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debugf("%s No %s to update", cctx.LogPrefix(), name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated := entities.InsertChangelogEntry(string(data), entities.ChangelogEntries(applied))
	if updated == string(data) {
		return nil
	}
	if err = os.WriteFile(path, []byte(updated), 0o644); err != nil { //nolint:gosec // tracked file
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
