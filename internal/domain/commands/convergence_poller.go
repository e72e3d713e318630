package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// PollOutcome is the terminal state of a polling loop.
type PollOutcome string

const (
	PollConverged PollOutcome = "CONVERGED"
	PollTimedOut  PollOutcome = "TIMED_OUT"
)

// PollOptions configures one polling loop. A Timeout <= 0 disables the deadline.
type PollOptions struct {
	PollPeriod time.Duration
	Timeout    time.Duration
}

// UpdateLoop is the interface for the update-loop command.
type UpdateLoop interface {
	Run(ctx context.Context, settings *entities.Settings, opts PollOptions) (PollOutcome, error)
	Wake()
}

// ConvergencePoller repeats the update pass until no pull request is pending or
// the deadline passes. It performs no retries of its own.
type ConvergencePoller struct {
	update UpdatePullRequests
	clock  clockwork.Clock
	wake   chan struct{}
}

// NewConvergencePoller creates a poller sleeping on the given clock.
func NewConvergencePoller(update UpdatePullRequests, clock clockwork.Clock) *ConvergencePoller {
	return &ConvergencePoller{
		update: update,
		clock:  clock,
		wake:   make(chan struct{}, 1),
	}
}

// Run polls until convergence or timeout. Context cancellation stops the loop
// between passes and is returned as the error.
func (it *ConvergencePoller) Run(
	ctx context.Context,
	settings *entities.Settings,
	opts PollOptions,
) (PollOutcome, error) {
	start := it.clock.Now()
	var previous entities.StatusMap

	for iteration := 0; ; iteration++ {
		parent, err := it.update.Execute(ctx, settings)
		if err != nil {
			return "", fmt.Errorf("failed to update pull requests: %w", err)
		}
		current := entities.NewStatusMap(parent.StatusInfos())

		if iteration == 0 {
			logger.Info("")
			logger.Info("")
			for _, info := range current.Values() {
				logger.Info(info.String())
			}
			logger.Info("")
		} else {
			for _, info := range entities.ChangedStatuses(previous, current) {
				logger.Info(info.String())
			}
		}
		previous = current

		if !current.IsPending() {
			logger.Infof("All %d repositories converged", current.Len())
			return PollConverged, nil
		}

		if opts.Timeout > 0 && it.clock.Now().After(start.Add(opts.Timeout)) {
			logger.Warnf("Timed out after %s waiting for pull requests to merge", opts.Timeout)
			for _, info := range current.PendingValues() {
				logger.Warnf("Still pending: %s", info)
			}
			return PollTimedOut, nil
		}

		if err = it.sleep(ctx, opts.PollPeriod); err != nil {
			return "", err
		}
	}
}

// Wake interrupts the current sleep so the next pass starts immediately.
func (it *ConvergencePoller) Wake() {
	select {
	case it.wake <- struct{}{}:
	default:
	}
}

// RunSingle exists to satisfy callers that drive one repository at a time; the
// poller only works on the whole fleet.
func (it *ConvergencePoller) RunSingle(_ context.Context, _ *entities.CommandContext) {
	panic("ConvergencePoller.RunSingle should never be invoked, use Run")
}

func (it *ConvergencePoller) sleep(ctx context.Context, period time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-it.wake:
		logger.Debug("Poll sleep interrupted, polling again")
		return nil
	case <-it.clock.After(period):
		return nil
	}
}
