package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	constructors := []any{
		NewPullRequestReconciler,
		NewDependencyValidationEngine,
		NewPendingChangeTracker,
		NewPushVersionsCommand,
		NewPushRegexCommand,
		NewUpdatePullRequestsCommand,
		NewConvergencePoller,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *PullRequestReconciler) Reconciler {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *PushVersionsCommand) PushVersions {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *PushRegexCommand) PushRegex {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *UpdatePullRequestsCommand) UpdatePullRequests {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *ConvergencePoller) UpdateLoop {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
