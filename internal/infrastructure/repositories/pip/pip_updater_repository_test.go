//go:build unit

package pip_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/pip"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

func TestReplaceRequirementPin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		dep      string
		expected string
		changed  bool
	}{
		{
			name:     "should replace an exact pin",
			line:     "requests==2.31.0",
			dep:      "requests",
			expected: "requests==2.32.3",
			changed:  true,
		},
		{
			name:     "should match names the way pip normalizes them",
			line:     "Typing_Extensions == 4.9.0",
			dep:      "typing-extensions",
			expected: "Typing_Extensions == 2.32.3",
			changed:  true,
		},
		{
			name:     "should keep extras, markers and comments",
			line:     `uvicorn[standard]==0.27.0; python_version >= "3.8"  # server`,
			dep:      "uvicorn",
			expected: `uvicorn[standard]==2.32.3; python_version >= "3.8"  # server`,
			changed:  true,
		},
		{
			name:     "should ignore ranges",
			line:     "requests>=2.31.0",
			dep:      "requests",
			expected: "requests>=2.31.0",
		},
		{
			name:     "should ignore packages sharing a prefix",
			line:     "requests-oauthlib==1.3.1",
			dep:      "requests",
			expected: "requests-oauthlib==1.3.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			lines := []string{tt.line}

			// when
			changed := pip.ReplaceRequirementPin(lines, tt.dep, "2.32.3", nil)

			// then
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.expected, lines[0])
		})
	}
}

func TestPipUpdaterRepository(t *testing.T) {
	t.Parallel()

	t.Run("should update the requirements files and the interpreter version", func(t *testing.T) {
		t.Parallel()

		// given
		fs := afero.NewMemMapFs()
		files := map[string]string{
			"requirements.txt":      "requests==2.31.0\nflask==3.0.0\n",
			"requirements-dev.txt":  "requests==2.31.0\npytest==8.0.0\n",
			"docs/requirements.txt": "requests==2.31.0\n",
			".python-version":       "3.11.7\n",
		}
		for name, content := range files {
			require.NoError(t, afero.WriteFile(fs, "/work/api/"+name, []byte(content), 0o644))
		}
		cctx := entities.NewCommandContext(
			entities.Repository{Owner: "acme", Name: "api", Dir: "/work/api"}, &entities.Settings{}, nil,
		)
		updater := pip.NewPipUpdaterRepository(textfile.NewEditor(fs))
		requests := entities.NewDependencyVersionChange(entities.KindPip, "requests", "2.32.3")
		flask := entities.NewDependencyVersionChange(entities.KindPip, "flask", "2.3.3")
		python := entities.NewDependencyVersionChange(entities.KindPip, pip.PythonRuntime, "3.12.2")
		changes := []entities.DependencyVersionChange{requests, flask, python}

		// when
		changed, err := updater.PushVersions(context.Background(), cctx, changes)
		check, checkErr := updater.CheckDependencies(context.Background(), cctx, changes)

		// then
		require.NoError(t, err)
		require.NoError(t, checkErr)
		assert.True(t, changed)
		read := func(name string) string {
			data, readErr := afero.ReadFile(fs, "/work/api/"+name)
			require.NoError(t, readErr)
			return string(data)
		}
		assert.Equal(t, "requests==2.32.3\nflask==2.3.3\n", read("requirements.txt"))
		assert.Equal(t, "requests==2.32.3\npytest==8.0.0\n", read("requirements-dev.txt"))
		assert.Equal(t, "requests==2.31.0\n", read("docs/requirements.txt"))
		assert.Equal(t, "3.12.2\n", read(".python-version"))
		assert.Equal(t, []entities.DependencyVersionChange{requests, python}, check.Valid)
		assert.Equal(t, []entities.DependencyVersionChange{flask}, check.Invalid)
	})
}
