//go:build unit

package entities_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

func TestNewRepositoryFromCloneURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cloneURL string
		owner    string
		repo     string
		host     string
		dir      string
	}{
		{
			name:     "should parse an HTTPS clone URL",
			cloneURL: "https://github.com/acme/service.git",
			owner:    "acme",
			repo:     "service",
			host:     "github.com",
			dir:      "/work/github.com/acme/service",
		},
		{
			name:     "should parse an SSH clone URL",
			cloneURL: "git@gitlab.com:group/sub/project.git",
			owner:    "group/sub",
			repo:     "project",
			host:     "gitlab.com",
			dir:      "/work/gitlab.com/group/sub/project",
		},
		{
			name:     "should parse a clone URL without the .git suffix",
			cloneURL: "https://github.com/acme/service",
			owner:    "acme",
			repo:     "service",
			host:     "github.com",
			dir:      "/work/github.com/acme/service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given, when
			repo := entities.NewRepositoryFromCloneURL(tt.cloneURL, "/work")

			// then
			assert.Equal(t, tt.owner, repo.Owner)
			assert.Equal(t, tt.repo, repo.Name)
			assert.Equal(t, tt.host, repo.Host())
			assert.Equal(t, tt.dir, repo.Dir)
		})
	}

	t.Run("should tolerate a missing .git suffix when comparing clone URLs", func(t *testing.T) {
		t.Parallel()

		// given
		repo := entities.NewRepositoryFromCloneURL("https://github.com/acme/service.git", "")

		// when, then
		assert.True(t, repo.HasCloneURL("https://github.com/acme/service"))
		assert.False(t, repo.HasCloneURL("https://github.com/acme/other"))
	})
}

func TestBranchCache(t *testing.T) {
	t.Parallel()

	repo := entities.NewRepositoryFromCloneURL("https://github.com/acme/service.git", "")

	t.Run("should load a branch only once", func(t *testing.T) {
		t.Parallel()

		// given
		cache := entities.NewBranchCache()
		calls := 0
		load := func(context.Context, entities.Repository) (string, error) {
			calls++
			return "main", nil
		}

		// when
		first, err1 := cache.Get(context.Background(), repo, load)
		second, err2 := cache.Get(context.Background(), repo, load)

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, "main", first)
		assert.Equal(t, "main", second)
		assert.Equal(t, 1, calls)
	})

	t.Run("should not cache an empty branch or an error", func(t *testing.T) {
		t.Parallel()

		// given
		cache := entities.NewBranchCache()
		calls := 0
		load := func(context.Context, entities.Repository) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("boom")
			}
			return "", nil
		}

		// when
		_, err := cache.Get(context.Background(), repo, load)
		branch, _ := cache.Get(context.Background(), repo, load)
		_, _ = cache.Get(context.Background(), repo, load)

		// then
		require.Error(t, err)
		assert.Empty(t, branch)
		assert.Equal(t, 3, calls)
	})

	t.Run("should reload after being invalidated", func(t *testing.T) {
		t.Parallel()

		// given
		cache := entities.NewBranchCache()
		branches := []string{"main", "trunk"}
		load := func(context.Context, entities.Repository) (string, error) {
			branch := branches[0]
			branches = branches[1:]
			return branch, nil
		}
		_, _ = cache.Get(context.Background(), repo, load)

		// when
		cache.Invalidate(repo)
		branch, err := cache.Get(context.Background(), repo, load)

		// then
		require.NoError(t, err)
		assert.Equal(t, "trunk", branch)
	})
}
