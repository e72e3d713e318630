//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

func TestStatusMap(t *testing.T) {
	t.Parallel()

	t.Run("should keep the insertion order and let later entries win", func(t *testing.T) {
		t.Parallel()

		// given
		infos := []entities.StatusInfo{
			{CloneURL: "b", Pending: true, Description: "first"},
			{CloneURL: "a"},
			{CloneURL: "b", Description: "second"},
		}

		// when
		m := entities.NewStatusMap(infos)

		// then
		assert.Equal(t, 2, m.Len())
		values := m.Values()
		assert.Equal(t, "b", values[0].CloneURL)
		assert.Equal(t, "second", values[0].Description)
		assert.False(t, m.IsPending())
	})

	t.Run("should list only the pending entries", func(t *testing.T) {
		t.Parallel()

		// given
		m := entities.NewStatusMap([]entities.StatusInfo{
			{CloneURL: "a", Pending: true},
			{CloneURL: "b"},
		})

		// when
		pending := m.PendingValues()

		// then
		assert.True(t, m.IsPending())
		assert.Equal(t, []entities.StatusInfo{{CloneURL: "a", Pending: true}}, pending)
	})

	t.Run("should treat an empty map as converged", func(t *testing.T) {
		t.Parallel()

		// given
		m := entities.NewStatusMap(nil)

		// when, then
		assert.False(t, m.IsPending())
		assert.Empty(t, m.Values())
	})
}

func TestChangedStatuses(t *testing.T) {
	t.Parallel()

	t.Run("should report new and modified entries only", func(t *testing.T) {
		t.Parallel()

		// given
		previous := entities.NewStatusMap([]entities.StatusInfo{
			{CloneURL: "a", Pending: true, Description: "open"},
			{CloneURL: "b", Pending: true, Description: "open"},
		})
		current := entities.NewStatusMap([]entities.StatusInfo{
			{CloneURL: "a", Pending: true, Description: "open"},
			{CloneURL: "b", Description: "merged"},
			{CloneURL: "c", Pending: true, Description: "open"},
		})

		// when
		changed := entities.ChangedStatuses(previous, current)

		// then
		assert.Equal(t, []entities.StatusInfo{
			{CloneURL: "b", Description: "merged"},
			{CloneURL: "c", Pending: true, Description: "open"},
		}, changed)
	})
}

func TestCommandContextStatus(t *testing.T) {
	t.Parallel()

	t.Run("should be pending while a pull request is open", func(t *testing.T) {
		t.Parallel()

		// given
		cctx := entities.NewCommandContext(entities.Repository{CloneURL: "https://github.com/acme/a.git"}, nil, nil)
		cctx.PullRequest = &entities.PullRequest{URL: "https://github.com/acme/a/pull/1"}
		cctx.Result = entities.ResultCreated

		// when
		status := cctx.Status()

		// then
		assert.True(t, status.Pending)
		assert.Equal(t, "PR created https://github.com/acme/a/pull/1", status.Description)
	})

	t.Run("should not be pending after a failed push", func(t *testing.T) {
		t.Parallel()

		// given
		cctx := entities.NewCommandContext(entities.Repository{CloneURL: "https://github.com/acme/a.git"}, nil, nil)
		cctx.PullRequest = &entities.PullRequest{URL: "https://github.com/acme/a/pull/1"}
		cctx.Result = entities.ResultFailed

		// when
		status := cctx.Status()

		// then
		assert.False(t, status.Pending)
		assert.Equal(t, "push failed", status.Description)
	})

	t.Run("should mention the tracking issue", func(t *testing.T) {
		t.Parallel()

		// given
		cctx := entities.NewCommandContext(entities.Repository{CloneURL: "https://github.com/acme/a.git"}, nil, nil)
		cctx.Issue = &entities.Issue{URL: "https://github.com/acme/a/issues/2"}
		cctx.IssueOutcome = entities.IssueOpened

		// when
		summary := cctx.Summary()

		// then
		assert.Equal(t, "no changes, issue opened https://github.com/acme/a/issues/2", summary)
	})

	t.Run("should prefer an explicit status", func(t *testing.T) {
		t.Parallel()

		// given
		cctx := entities.NewCommandContext(entities.Repository{CloneURL: "x"}, nil, nil)
		cctx.SetStatus(entities.StatusInfo{CloneURL: "x", Pending: true, Description: "custom"})

		// when
		status := cctx.Status()

		// then
		assert.Equal(t, "custom", status.Description)
		assert.True(t, status.Pending)
	})

	t.Run("should remember that the issue was closed during the pass", func(t *testing.T) {
		t.Parallel()

		// given
		cctx := entities.NewCommandContext(entities.Repository{}, nil, nil)
		cctx.Issue = &entities.Issue{Number: 4}

		// when
		cctx.MarkIssueClosed()

		// then
		assert.Nil(t, cctx.Issue)
		assert.True(t, cctx.IssueClosedThisPass())
	})
}
