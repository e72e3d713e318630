//go:build unit

package controllers_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/infrastructure/controllers"
	"github.com/rios0rios0/updatebot/test/domain/commanddoubles"
)

const configYAML = `work_dir: /tmp/updatebot-test
poll_period: 5m
poll_timeout: 30m
repositories:
  - clone_url: https://github.com/acme/service.git
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".updatebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newCommand builds the subcommand the way the root command wires it, with the
// persistent flags declared locally.
func newCommand(t *testing.T, controller entities.Controller, flags map[string]string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: controller.GetBind().Use}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	if adder, ok := controller.(controllers.FlagsAdder); ok {
		adder.AddFlags(cmd)
	}
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func TestPushVersionController(t *testing.T) {
	t.Parallel()

	t.Run("should take the kind from the first argument", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPushVersionsCommand{}
		controller := controllers.NewPushVersionController(stub)
		cmd := newCommand(t, controller, map[string]string{"config": writeConfig(t, configYAML)})

		// when
		controller.Execute(cmd, []string{"docker", "nginx", "1.25.3", "redis", "7.2.4"})

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindDocker, "nginx", "1.25.3"),
			entities.NewDependencyVersionChange(entities.KindDocker, "redis", "7.2.4"),
		}, stub.LastChanges)
		assert.False(t, stub.LastSettings.DryRun)
	})

	t.Run("should take the kind from the flag and honour dry-run", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPushVersionsCommand{}
		controller := controllers.NewPushVersionController(stub)
		cmd := newCommand(t, controller, map[string]string{
			"config":  writeConfig(t, configYAML),
			"kind":    "make",
			"dry-run": "true",
		})

		// when
		controller.Execute(cmd, []string{"GO_VERSION", "1.22.1"})

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, []entities.DependencyVersionChange{
			entities.NewDependencyVersionChange(entities.KindMake, "GO_VERSION", "1.22.1"),
		}, stub.LastChanges)
		assert.True(t, stub.LastSettings.DryRun)
	})

	tests := []struct {
		name   string
		args   []string
		config string
	}{
		{name: "should not push without arguments", args: nil, config: configYAML},
		{name: "should not push an incomplete pair", args: []string{"docker", "nginx"}, config: configYAML},
		{name: "should not push with an invalid config", args: []string{"docker", "nginx", "1.25.3"}, config: "merge_method: fast\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			stub := &commanddoubles.StubPushVersionsCommand{}
			controller := controllers.NewPushVersionController(stub)
			cmd := newCommand(t, controller, map[string]string{"config": writeConfig(t, tt.config)})

			// when
			controller.Execute(cmd, tt.args)

			// then
			assert.Zero(t, stub.ExecuteCallCount)
		})
	}

	t.Run("should survive a failing push", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPushVersionsCommand{ExecuteErr: errors.New("work dir not writable")}
		controller := controllers.NewPushVersionController(stub)
		cmd := newCommand(t, controller, map[string]string{"config": writeConfig(t, configYAML)})

		// when, then
		assert.NotPanics(t, func() { controller.Execute(cmd, []string{"docker", "nginx", "1.25.3"}) })
		assert.Equal(t, 1, stub.ExecuteCallCount)
	})
}

func TestPushRegexController(t *testing.T) {
	t.Parallel()

	t.Run("should pass the regex options to the command", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPushRegexCommand{}
		controller := controllers.NewPushRegexController(stub)
		cmd := newCommand(t, controller, map[string]string{
			"config":        writeConfig(t, configYAML),
			"regex":         `version: (.*)`,
			"value":         "1.2.3",
			"files":         "charts/*/Chart.yaml,*.yaml",
			"exclude":       "vendor/*",
			"previous-line": `name: app`,
		})

		// when
		controller.Execute(cmd, nil)

		// then
		require.Equal(t, 1, stub.ExecuteCallCount)
		assert.Equal(t, entities.RegexOptions{
			Regex:               `version: (.*)`,
			Value:               "1.2.3",
			Files:               []string{"charts/*/Chart.yaml", "*.yaml"},
			ExcludeFiles:        []string{"vendor/*"},
			PreviousLinePattern: `name: app`,
		}, stub.LastOptions)
	})

	t.Run("should not push without a value", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubPushRegexCommand{}
		controller := controllers.NewPushRegexController(stub)
		cmd := newCommand(t, controller, map[string]string{
			"config": writeConfig(t, configYAML),
			"regex":  `version: (.*)`,
		})

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Zero(t, stub.ExecuteCallCount)
	})
}

func TestUpdateController(t *testing.T) {
	t.Parallel()

	// given
	stub := &commanddoubles.StubUpdatePullRequestsCommand{}
	controller := controllers.NewUpdateController(stub)
	cmd := newCommand(t, controller, map[string]string{"config": writeConfig(t, configYAML)})

	// when
	controller.Execute(cmd, nil)

	// then
	require.Equal(t, 1, stub.ExecuteCallCount)
	assert.Equal(t, "/tmp/updatebot-test", stub.LastSettings.WorkDir)
}

func TestUpdateLoopController(t *testing.T) {
	t.Parallel()

	t.Run("should poll with the configured period and timeout", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUpdateLoop{Outcome: commands.PollConverged}
		controller := controllers.NewUpdateLoopController(stub)
		cmd := newCommand(t, controller, map[string]string{"config": writeConfig(t, configYAML)})

		// when
		controller.Execute(cmd, nil)

		// then
		require.Equal(t, 1, stub.RunCallCount)
		assert.Equal(t, commands.PollOptions{PollPeriod: 5 * time.Minute, Timeout: 30 * time.Minute}, stub.LastOpts)
	})

	t.Run("should let the flags override the configured period and timeout", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUpdateLoop{Outcome: commands.PollTimedOut}
		controller := controllers.NewUpdateLoopController(stub)
		cmd := newCommand(t, controller, map[string]string{
			"config":      writeConfig(t, configYAML),
			"poll-period": "10s",
			"timeout":     "-1s",
		})

		// when
		controller.Execute(cmd, nil)

		// then
		require.Equal(t, 1, stub.RunCallCount)
		assert.Equal(t, commands.PollOptions{PollPeriod: 10 * time.Second, Timeout: -time.Second}, stub.LastOpts)
	})

	t.Run("should not poll without a readable config", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUpdateLoop{}
		controller := controllers.NewUpdateLoopController(stub)
		cmd := newCommand(t, controller, map[string]string{
			"config": filepath.Join(t.TempDir(), "missing.yaml"),
		})

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Zero(t, stub.RunCallCount)
	})
}
