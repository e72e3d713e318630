//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

const defaultCloneURL = "https://github.com/acme/service.git"

// SettingsBuilder helps create test settings with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	settings entities.Settings
}

// NewSettingsBuilder creates a builder for settings holding one GitHub repository.
func NewSettingsBuilder() *SettingsBuilder {
	b := &SettingsBuilder{BaseBuilder: testkit.NewBaseBuilder()}
	b.Reset()
	return b
}

// WithRepositories replaces the configured repositories.
func (b *SettingsBuilder) WithRepositories(repositories ...entities.RepositorySettings) *SettingsBuilder {
	b.settings.Repositories = repositories
	return b
}

// WithSinglePullRequest turns on the single pull request mode of every repository.
func (b *SettingsBuilder) WithSinglePullRequest() *SettingsBuilder {
	for i := range b.settings.Repositories {
		b.settings.Repositories[i].UseSinglePullRequest = true
	}
	return b
}

// WithBranch sets the base branch of every repository.
func (b *SettingsBuilder) WithBranch(branch string) *SettingsBuilder {
	for i := range b.settings.Repositories {
		b.settings.Repositories[i].Branch = branch
	}
	return b
}

// WithDryRun turns on dry-run.
func (b *SettingsBuilder) WithDryRun() *SettingsBuilder {
	b.settings.DryRun = true
	return b
}

// WithRebaseMode turns on rebase mode.
func (b *SettingsBuilder) WithRebaseMode() *SettingsBuilder {
	b.settings.RebaseMode = true
	return b
}

// WithCheckDependencies turns on dependency validation.
func (b *SettingsBuilder) WithCheckDependencies() *SettingsBuilder {
	b.settings.CheckDependencies = true
	return b
}

// WithMerge turns on merging of green pull requests.
func (b *SettingsBuilder) WithMerge() *SettingsBuilder {
	b.settings.Merge = true
	return b
}

// WithProwCommand sets the comment posted after each push.
func (b *SettingsBuilder) WithProwCommand(command string) *SettingsBuilder {
	b.settings.ProwCommand = command
	return b
}

// WithChangelog sets the changelog file name.
func (b *SettingsBuilder) WithChangelog(name string) *SettingsBuilder {
	b.settings.Changelog = name
	return b
}

// WithWorkDir sets the directory working copies are placed in.
func (b *SettingsBuilder) WithWorkDir(dir string) *SettingsBuilder {
	b.settings.WorkDir = dir
	return b
}

// WithParallelism sets how many repositories are processed at once.
func (b *SettingsBuilder) WithParallelism(parallelism int) *SettingsBuilder {
	b.settings.Parallelism = parallelism
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	settings := b.settings
	settings.Repositories = append([]entities.RepositorySettings(nil), b.settings.Repositories...)
	settings.Providers = append([]entities.ProviderSettings(nil), b.settings.Providers...)
	return &settings
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.settings = entities.Settings{
		WorkDir:          "/tmp/updatebot-test",
		MergeMethod:      entities.DefaultMergeMethod,
		PullRequestLabel: entities.DefaultPullRequestLabel,
		PollPeriod:       entities.DefaultPollPeriod,
		PollTimeout:      entities.DefaultPollTimeout,
		Parallelism:      1,
		Providers:        []entities.ProviderSettings{{Type: "github", Token: "test-token"}},
		Repositories:     []entities.RepositorySettings{{CloneURL: defaultCloneURL}},
	}
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		settings:    *b.BuildSettings(),
	}
}
