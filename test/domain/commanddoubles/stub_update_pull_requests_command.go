//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// StubUpdatePullRequestsCommand is a stub implementation of commands.UpdatePullRequests.
// Each call returns the next of Statuses; the last one repeats once exhausted.
type StubUpdatePullRequestsCommand struct {
	Statuses         [][]entities.StatusInfo
	ExecuteErr       error
	ExecuteCallCount int
	LastSettings     *entities.Settings
	// OnExecute runs before the result is returned, with the 1-based call number.
	OnExecute func(call int)
}

var _ commands.UpdatePullRequests = (*StubUpdatePullRequestsCommand)(nil)

func (s *StubUpdatePullRequestsCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
) (*entities.ParentContext, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	if s.OnExecute != nil {
		s.OnExecute(s.ExecuteCallCount)
	}
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}

	parent := entities.NewParentContext()
	if len(s.Statuses) == 0 {
		return parent, nil
	}
	index := s.ExecuteCallCount - 1
	if index >= len(s.Statuses) {
		index = len(s.Statuses) - 1
	}
	for _, status := range s.Statuses[index] {
		child := entities.NewCommandContext(entities.Repository{CloneURL: status.CloneURL}, settings, nil)
		child.SetStatus(status)
		parent.Add(child)
	}
	return parent, nil
}
