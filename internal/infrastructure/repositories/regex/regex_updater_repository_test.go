//go:build unit

package regex_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/regex"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const workDir = "/work/service"

func newUpdater(t *testing.T, files map[string]string) (*regex.RegexUpdaterRepository, afero.Fs, *entities.CommandContext) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, workDir+"/"+name, []byte(content), 0o644))
	}
	cctx := entities.NewCommandContext(
		entities.Repository{Owner: "acme", Name: "service", Dir: workDir}, &entities.Settings{}, nil,
	)
	return regex.NewRegexUpdaterRepository(textfile.NewEditor(fs)), fs, cctx
}

func content(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, workDir+"/"+name)
	require.NoError(t, err)
	return string(data)
}

func TestRegexUpdaterRepositoryPushRegex(t *testing.T) {
	t.Parallel()

	const values = "image:\n  repository: nginx\n  tag: 1.24.0\nsidecar:\n  tag: 1.24.0\n"

	t.Run("should replace the capture group of whole-line matches in the selected files", func(t *testing.T) {
		t.Parallel()

		// given
		updater, fs, cctx := newUpdater(t, map[string]string{
			"values.yaml":            values,
			"charts/app/values.yaml": values,
			"README.md":              "  tag: 1.24.0\n",
		})

		// when
		changed, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex: `  tag: (.+)`,
			Value: "1.25.3",
			Files: []string{"*.yaml"},
		})

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		expected := "image:\n  repository: nginx\n  tag: 1.25.3\nsidecar:\n  tag: 1.25.3\n"
		assert.Equal(t, expected, content(t, fs, "values.yaml"))
		assert.Equal(t, expected, content(t, fs, "charts/app/values.yaml"))
		assert.Equal(t, "  tag: 1.24.0\n", content(t, fs, "README.md"))
	})

	t.Run("should skip excluded files", func(t *testing.T) {
		t.Parallel()

		// given
		updater, fs, cctx := newUpdater(t, map[string]string{
			"values.yaml":            values,
			"charts/app/values.yaml": values,
		})

		// when
		changed, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex:        `  tag: (.+)`,
			Value:        "1.25.3",
			ExcludeFiles: []string{"charts/*"},
		})

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Contains(t, content(t, fs, "values.yaml"), "tag: 1.25.3")
		assert.Equal(t, values, content(t, fs, "charts/app/values.yaml"))
	})

	t.Run("should only replace lines following the previous line pattern", func(t *testing.T) {
		t.Parallel()

		// given
		updater, fs, cctx := newUpdater(t, map[string]string{"values.yaml": values})

		// when
		changed, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex:               `  tag: (.+)`,
			Value:               "1.25.3",
			PreviousLinePattern: `  repository: nginx`,
		})

		// then
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t,
			"image:\n  repository: nginx\n  tag: 1.25.3\nsidecar:\n  tag: 1.24.0\n",
			content(t, fs, "values.yaml"),
		)
	})

	t.Run("should report no change when nothing matches", func(t *testing.T) {
		t.Parallel()

		// given
		updater, _, cctx := newUpdater(t, map[string]string{"values.yaml": values})

		// when
		changed, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex: `version: (.+)`,
			Value: "2.0.0",
		})

		// then
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("should refuse an expression without a capture group", func(t *testing.T) {
		t.Parallel()

		// given
		updater, _, cctx := newUpdater(t, map[string]string{"values.yaml": values})

		// when
		_, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex: `  tag: .+`,
			Value: "1.25.3",
		})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capture group")
	})

	t.Run("should refuse an invalid previous line pattern", func(t *testing.T) {
		t.Parallel()

		// given
		updater, _, cctx := newUpdater(t, map[string]string{"values.yaml": values})

		// when
		_, err := updater.PushRegex(context.Background(), cctx, entities.RegexOptions{
			Regex:               `  tag: (.+)`,
			Value:               "1.25.3",
			PreviousLinePattern: `(`,
		})

		// then
		require.Error(t, err)
	})
}

func TestRegexUpdaterRepositoryPushVersions(t *testing.T) {
	t.Parallel()

	// given
	updater, fs, cctx := newUpdater(t, map[string]string{".tool-versions": "golang 1.21.5\nnodejs 20.10.0\n"})

	// when
	changed, err := updater.PushVersions(context.Background(), cctx, []entities.DependencyVersionChange{
		entities.NewDependencyVersionChange(entities.KindRegex, `golang (.+)`, "1.22.1"),
	})

	// then
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "golang 1.22.1\nnodejs 20.10.0\n", content(t, fs, ".tool-versions"))
}

func TestRegexUpdaterRepositoryCheckDependencies(t *testing.T) {
	t.Parallel()

	// given
	updater, _, cctx := newUpdater(t, nil)
	valid := entities.NewDependencyVersionChange(entities.KindRegex, `golang (.+)`, "1.22.1")
	noGroup := entities.NewDependencyVersionChange(entities.KindRegex, `golang .+`, "1.22.1")
	broken := entities.NewDependencyVersionChange(entities.KindRegex, `golang (`, "1.22.1")
	empty := entities.NewDependencyVersionChange(entities.KindRegex, `nodejs (.+)`, "")

	// when
	check, err := updater.CheckDependencies(context.Background(), cctx, []entities.DependencyVersionChange{
		valid, noGroup, broken, empty,
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, []entities.DependencyVersionChange{valid}, check.Valid)
	assert.Equal(t, []entities.DependencyVersionChange{noGroup, broken, empty}, check.Invalid)
	assert.Equal(t, "no target version given", check.Causes[empty.Key()])
	assert.Contains(t, check.Causes[noGroup.Key()], "capture group")
}
