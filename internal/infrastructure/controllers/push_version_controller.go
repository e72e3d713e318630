package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

var errMissingKind = errors.New("missing dependency kind")

// PushVersionController handles the "push-version" subcommand.
type PushVersionController struct {
	command commands.PushVersions
}

// NewPushVersionController creates a new PushVersionController.
func NewPushVersionController(command commands.PushVersions) *PushVersionController {
	return &PushVersionController{command: command}
}

// GetBind returns the Cobra command metadata for the push-version controller.
func (it *PushVersionController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "push-version [kind] <dependency> <version> [<dependency> <version>...]",
		Short: "Push dependency versions into every configured repository",
		Long: `Apply dependency version changes to every configured repository and open
or update one pull request per repository.

With check_dependencies enabled, changes failing validation are kept out of the
pull request and recorded on a tracking issue until they become valid.

Examples:
  updatebot push-version docker nginx 1.25.3
  updatebot push-version --kind make GO_VERSION 1.22.1 LINT_VERSION 1.57.0
  updatebot push-version go github.com/sirupsen/logrus v1.9.4 go 1.22.1`,
	}
}

// Execute runs the push-version command.
func (it *PushVersionController) Execute(cmd *cobra.Command, args []string) {
	changes, err := parseChanges(cmd, args)
	if err != nil {
		logger.Errorf("Invalid arguments: %v", err)
		return
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	logger.Infof("Pushing %s", entities.DescribeChanges(changes))
	parent, err := it.command.Execute(context.Background(), settings, changes)
	if err != nil {
		logger.Errorf("Push failed: %v", err)
		return
	}
	logStatuses(parent)
}

// AddFlags adds the push-version specific flags to the given Cobra command.
func (it *PushVersionController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("kind", "k", "",
		fmt.Sprintf("Kind of the dependencies (%s); defaults to the first argument", strings.Join([]string{
			string(entities.KindDocker), string(entities.KindMake), string(entities.KindTerraform),
			string(entities.KindGo), string(entities.KindNpm), string(entities.KindPip), string(entities.KindRegex),
		}, ", ")))
}

func parseChanges(cmd *cobra.Command, args []string) ([]entities.DependencyVersionChange, error) {
	kind, _ := cmd.Flags().GetString("kind")
	if kind == "" {
		if len(args) == 0 {
			return nil, errMissingKind
		}
		kind, args = args[0], args[1:]
	}
	return entities.ParseDependencyVersionChanges(entities.Kind(kind), args)
}
