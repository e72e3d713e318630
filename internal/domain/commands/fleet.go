package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

//nolint:gochecknoglobals // metrics are registered once per process
var repositoryResults = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "updatebot_repository_results_total",
		Help: "Total number of processed repositories by reconcile result",
	},
	[]string{"result"},
)

// passScoped is implemented by collaborators caching lookups for one pass.
type passScoped interface {
	Reset()
}

// resetPass clears what the collaborators remembered from the previous pass.
func resetPass(collaborators ...any) {
	for _, collaborator := range collaborators {
		if scoped, ok := collaborator.(passScoped); ok {
			scoped.Reset()
		}
	}
}

type repositoryProcessor func(
	ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext,
) error

// processFleet runs process once per configured repository and collects the
// contexts in configuration order. A repository's failure never stops the others.
func processFleet(
	ctx context.Context,
	connector repositories.ForgeConnector,
	settings *entities.Settings,
	describer entities.Describer,
	process repositoryProcessor,
) (*entities.ParentContext, error) {
	forges, err := connector.Connect(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to forges: %w", err)
	}

	parent := entities.NewParentContext()
	for _, repo := range settings.RepositoryTargets() {
		parent.Add(entities.NewCommandContext(repo, settings, describer))
	}

	run := func(cctx *entities.CommandContext) {
		forge, forgeErr := forges.For(cctx.Repository)
		if forgeErr != nil {
			logger.Errorf("%s %v", cctx.LogPrefix(), forgeErr)
			cctx.Result = entities.ResultFailed
			repositoryResults.WithLabelValues(string(entities.ResultFailed)).Inc()
			return
		}

		if processErr := process(ctx, forge, cctx); processErr != nil {
			logger.Errorf("%s Failed to process %s: %v", cctx.LogPrefix(), cctx.Repository.CloneURL, processErr)
			if cctx.Result == entities.ResultNone {
				cctx.Result = entities.ResultFailed
			}
		}
		logger.Infof("%s %s", cctx.LogPrefix(), cctx.Status().Description)
		repositoryResults.WithLabelValues(resultLabel(cctx.Result)).Inc()
	}

	children := parent.Children()
	if settings.Parallelism <= 1 {
		for _, cctx := range children {
			run(cctx)
		}
		return parent, nil
	}

	// each repository owns its working copy, so they can run side by side
	var group errgroup.Group
	group.SetLimit(settings.Parallelism)
	for _, cctx := range children {
		group.Go(func() error {
			run(cctx)
			return nil
		})
	}
	_ = group.Wait()
	return parent, nil
}

func resultLabel(result entities.ReconcileResult) string {
	if result == entities.ResultNone {
		return "none"
	}
	return string(result)
}
