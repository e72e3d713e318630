//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// StubPushVersionsCommand is a stub implementation of commands.PushVersions.
type StubPushVersionsCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastChanges      []entities.DependencyVersionChange
}

var _ commands.PushVersions = (*StubPushVersionsCommand)(nil)

func (s *StubPushVersionsCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	changes []entities.DependencyVersionChange,
) (*entities.ParentContext, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastChanges = changes
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	return entities.NewParentContext(), nil
}

// StubPushRegexCommand is a stub implementation of commands.PushRegex.
type StubPushRegexCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOptions      entities.RegexOptions
}

var _ commands.PushRegex = (*StubPushRegexCommand)(nil)

func (s *StubPushRegexCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	options entities.RegexOptions,
) (*entities.ParentContext, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOptions = options
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	return entities.NewParentContext(), nil
}

// StubUpdateLoop is a stub implementation of commands.UpdateLoop.
type StubUpdateLoop struct {
	Outcome      commands.PollOutcome
	RunErr       error
	RunCallCount int
	WakeCount    int
	LastSettings *entities.Settings
	LastOpts     commands.PollOptions
}

var _ commands.UpdateLoop = (*StubUpdateLoop)(nil)

func (s *StubUpdateLoop) Run(
	_ context.Context,
	settings *entities.Settings,
	opts commands.PollOptions,
) (commands.PollOutcome, error) {
	s.RunCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	return s.Outcome, s.RunErr
}

func (s *StubUpdateLoop) Wake() {
	s.WakeCount++
}
