//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// DependencyVersionChangeBuilder helps create test version changes with a fluent interface.
type DependencyVersionChangeBuilder struct {
	*testkit.BaseBuilder
	kind       entities.Kind
	dependency string
	oldVersion string
	newVersion string
}

// NewDependencyVersionChangeBuilder creates a new builder with sensible defaults.
func NewDependencyVersionChangeBuilder() *DependencyVersionChangeBuilder {
	return &DependencyVersionChangeBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		kind:        entities.KindDocker,
		dependency:  "nginx",
		newVersion:  "1.25.3",
	}
}

// WithKind sets the dependency kind.
func (b *DependencyVersionChangeBuilder) WithKind(kind entities.Kind) *DependencyVersionChangeBuilder {
	b.kind = kind
	return b
}

// WithDependency sets the dependency name.
func (b *DependencyVersionChangeBuilder) WithDependency(dependency string) *DependencyVersionChangeBuilder {
	b.dependency = dependency
	return b
}

// WithOldVersion sets the version being replaced.
func (b *DependencyVersionChangeBuilder) WithOldVersion(version string) *DependencyVersionChangeBuilder {
	b.oldVersion = version
	return b
}

// WithNewVersion sets the target version.
func (b *DependencyVersionChangeBuilder) WithNewVersion(version string) *DependencyVersionChangeBuilder {
	b.newVersion = version
	return b
}

// Build creates the change (satisfies testkit.Builder interface).
func (b *DependencyVersionChangeBuilder) Build() interface{} {
	return b.BuildChange()
}

// BuildChange creates the change with a concrete return type.
func (b *DependencyVersionChangeBuilder) BuildChange() entities.DependencyVersionChange {
	return entities.DependencyVersionChange{
		Kind:       b.kind,
		Dependency: b.dependency,
		OldVersion: b.oldVersion,
		NewVersion: b.newVersion,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyVersionChangeBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.kind = entities.KindDocker
	b.dependency = "nginx"
	b.oldVersion = ""
	b.newVersion = "1.25.3"
	return b
}

// Clone creates a deep copy of the DependencyVersionChangeBuilder.
func (b *DependencyVersionChangeBuilder) Clone() testkit.Builder {
	return &DependencyVersionChangeBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		kind:        b.kind,
		dependency:  b.dependency,
		oldVersion:  b.oldVersion,
		newVersion:  b.newVersion,
	}
}
