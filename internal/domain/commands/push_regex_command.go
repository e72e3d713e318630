package commands

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/updatebot/internal/infrastructure/repositories"
)

var (
	errNoRegexUpdater      = errors.New("no regex updater registered")
	errMissingRegexOptions = errors.New("stored command has no regex options")
)

// PushRegex is the interface for the push-regex command.
type PushRegex interface {
	Execute(ctx context.Context, settings *entities.Settings, options entities.RegexOptions) (*entities.ParentContext, error)
}

// PushRegexCommand replaces regex matches in every configured repository.
// Regex pushes are not validated, so no pending changes are tracked.
type PushRegexCommand struct {
	connector  repositories.ForgeConnector
	reconciler Reconciler
	updaters   *infraRepos.UpdaterRegistry
}

// NewPushRegexCommand creates a new PushRegexCommand.
func NewPushRegexCommand(
	connector repositories.ForgeConnector,
	reconciler Reconciler,
	updaters *infraRepos.UpdaterRegistry,
) *PushRegexCommand {
	return &PushRegexCommand{connector: connector, reconciler: reconciler, updaters: updaters}
}

// Execute processes every repository and returns their contexts in order.
func (it *PushRegexCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	options entities.RegexOptions,
) (*entities.ParentContext, error) {
	resetPass(it.reconciler)
	logger.Infof("Pushing regex %s to %s", options.Regex, options.Value)
	return processFleet(ctx, it.connector, settings, entities.NewPushRegexDescriber(options),
		func(ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext) error {
			return it.process(ctx, forge, cctx, options, nil)
		})
}

// Replay applies the stored regex again onto an existing pull request.
func (it *PushRegexCommand) Replay(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) error {
	options := cctx.Describer.Replay().Regex
	if options == nil {
		return errMissingRegexOptions
	}
	return it.process(ctx, forge, cctx, *options, pr)
}

func (it *PushRegexCommand) process(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	options entities.RegexOptions,
	pr *entities.PullRequest,
) error {
	updater := it.updaters.Regex()
	if updater == nil {
		return errNoRegexUpdater
	}
	if err := it.reconciler.PrepareDirectory(ctx, forge, cctx); err != nil {
		return err
	}

	changed, err := updater.PushRegex(ctx, cctx, options)
	if err != nil {
		return err
	}
	if !changed {
		logger.Infof("%s No files matched %s", cctx.LogPrefix(), options.Regex)
		return nil
	}

	if pr != nil {
		_, err = it.reconciler.ProcessPullRequest(ctx, forge, cctx, pr)
	} else {
		_, err = it.reconciler.Reconcile(ctx, forge, cctx)
	}
	return err
}
