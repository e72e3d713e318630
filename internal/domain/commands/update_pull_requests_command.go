package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// UpdatePullRequests is the interface for the update command.
type UpdatePullRequests interface {
	Execute(ctx context.Context, settings *entities.Settings) (*entities.ParentContext, error)
}

// Replayer re-applies the command stored on a pull request onto that pull request.
type Replayer interface {
	Replay(
		ctx context.Context,
		forge repositories.ForgeRepository,
		cctx *entities.CommandContext,
		pr *entities.PullRequest,
	) error
}

// UpdatePullRequestsCommand merges the updatebot pull requests whose checks passed and
// rebases, in rebase mode, the ones that are no longer mergeable.
type UpdatePullRequestsCommand struct {
	connector  repositories.ForgeConnector
	reconciler Reconciler
	replayers  map[string]Replayer
}

// NewUpdatePullRequestsCommand creates a new UpdatePullRequestsCommand.
func NewUpdatePullRequestsCommand(
	connector repositories.ForgeConnector,
	reconciler Reconciler,
	pushVersions *PushVersionsCommand,
	pushRegex *PushRegexCommand,
) *UpdatePullRequestsCommand {
	return &UpdatePullRequestsCommand{
		connector:  connector,
		reconciler: reconciler,
		replayers: map[string]Replayer{
			entities.CommandPushVersion: pushVersions,
			entities.CommandPushRegex:   pushRegex,
		},
	}
}

// Execute makes one pass over every repository and reports whether each still has
// open updatebot pull requests.
func (it *UpdatePullRequestsCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
) (*entities.ParentContext, error) {
	resetPass(it.reconciler)
	for _, replayer := range it.replayers {
		resetPass(replayer)
	}
	return processFleet(ctx, it.connector, settings, nil, it.process)
}

func (it *UpdatePullRequestsCommand) process(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) error {
	repo := cctx.Repository
	settings := cctx.Settings

	prs, err := forge.ListOpenPullRequests(ctx, repo, settings.PullRequestLabel)
	if err != nil {
		cctx.SetStatus(entities.StatusInfo{
			CloneURL:    repo.CloneURL,
			Pending:     true,
			Description: "failed to list pull requests",
		})
		return fmt.Errorf("failed to list pull requests of %s: %w", repo.CloneURL, err)
	}

	var descriptions []string
	for i := range prs {
		pr := prs[i]
		if description, open := it.updatePullRequest(ctx, forge, cctx, &pr); open {
			descriptions = append(descriptions, description)
		}
	}

	if len(descriptions) == 0 {
		cctx.SetStatus(entities.StatusInfo{CloneURL: repo.CloneURL, Description: "no open pull requests"})
		return nil
	}
	cctx.SetStatus(entities.StatusInfo{
		CloneURL:    repo.CloneURL,
		Pending:     true,
		Description: strings.Join(descriptions, "; "),
	})
	return nil
}

// updatePullRequest merges or rebases one pull request. It returns false once the
// pull request was merged.
func (it *UpdatePullRequestsCommand) updatePullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) (string, bool) {
	repo := cctx.Repository
	settings := cctx.Settings

	mergeable := it.reconciler.IsMergeable(ctx, forge, cctx, pr)
	state, err := forge.GetCommitStatus(ctx, repo, pr.HeadSHA)
	if err != nil {
		logger.Warnf("%s Failed to read the status of %s: %v", cctx.LogPrefix(), pr.URL, err)
		state = entities.CommitStateUnknown
	}
	description := fmt.Sprintf("%s mergeable: %t, status: %s", pr.URL, mergeable, state)

	switch {
	case settings.Merge && mergeable && state == entities.CommitStateSuccess:
		if settings.DryRun {
			logger.Infof("%s [DRY RUN] Would merge %s", cctx.LogPrefix(), pr.URL)
			return description, true
		}
		if mergeErr := forge.MergePullRequest(ctx, repo, pr.Number, settings.MergeMethod); mergeErr != nil {
			logger.Warnf("%s Failed to merge %s: %v", cctx.LogPrefix(), pr.URL, mergeErr)
			return description, true
		}
		logger.Infof("%s Merged %s", cctx.LogPrefix(), pr.URL)
		return "", false
	case !mergeable && settings.RebaseMode:
		if rebaseErr := it.rebase(ctx, forge, cctx, pr); rebaseErr != nil {
			logger.Warnf("%s Failed to rebase %s: %v", cctx.LogPrefix(), pr.URL, rebaseErr)
		}
	}
	return description, true
}

// rebase replays the command stored in the newest command comment of the pull request.
func (it *UpdatePullRequestsCommand) rebase(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) error {
	comments, err := forge.ListPullRequestComments(ctx, cctx.Repository, pr.Number)
	if err != nil {
		return fmt.Errorf("failed to list comments of %s: %w", pr.URL, err)
	}

	replay, found, err := latestReplayCommand(comments)
	if err != nil {
		return err
	}
	if !found {
		logger.Warnf("%s No updatebot command found on %s, cannot rebase it", cctx.LogPrefix(), pr.URL)
		return nil
	}

	describer, err := entities.NewDescriber(replay)
	if err != nil {
		return err
	}
	replayer, ok := it.replayers[replay.Command]
	if !ok {
		return fmt.Errorf("cannot replay command %q", replay.Command)
	}

	child := entities.NewCommandContext(cctx.Repository, cctx.Settings, describer)
	logger.Infof("%s Rebasing %s by replaying %s", cctx.LogPrefix(), pr.URL, replay.Command)
	return replayer.Replay(ctx, forge, child, pr)
}

func latestReplayCommand(comments []entities.Comment) (entities.ReplayCommand, bool, error) {
	for i := len(comments) - 1; i >= 0; i-- {
		var replay entities.ReplayCommand
		err := entities.ExtractData(entities.CommandMarker, comments[i].Body, &replay)
		if entities.IsEmbeddedDataNotFound(err) {
			continue
		}
		if err != nil {
			return entities.ReplayCommand{}, false, err
		}
		return replay, true, nil
	}
	return entities.ReplayCommand{}, false, nil
}
