package entities

import (
	"context"
	"sync"
)

// BranchCache remembers each repository's default branch for one invocation.
// It is created per command run and injected, never shared between runs.
type BranchCache struct {
	mu       sync.Mutex
	branches map[string]string
}

// NewBranchCache creates an empty cache.
func NewBranchCache() *BranchCache {
	return &BranchCache{branches: make(map[string]string)}
}

func branchCacheKey(repo Repository) string {
	return repo.Host() + "/" + repo.FullName()
}

// Get returns the cached branch, or calls load and caches a non-empty result.
func (c *BranchCache) Get(
	ctx context.Context,
	repo Repository,
	load func(ctx context.Context, repo Repository) (string, error),
) (string, error) {
	key := branchCacheKey(repo)

	c.mu.Lock()
	branch, ok := c.branches[key]
	c.mu.Unlock()
	if ok {
		return branch, nil
	}

	branch, err := load(ctx, repo)
	if err != nil {
		return "", err
	}
	if branch != "" {
		c.mu.Lock()
		c.branches[key] = branch
		c.mu.Unlock()
	}
	return branch, nil
}

// Invalidate forgets the branch of one repository.
func (c *BranchCache) Invalidate(repo Repository) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.branches, branchCacheKey(repo))
}

// Clear forgets every cached branch.
func (c *BranchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.branches = make(map[string]string)
}
