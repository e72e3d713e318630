package controllers

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

var errMissingRegex = errors.New("--regex and --value are required")

// PushRegexController handles the "push-regex" subcommand.
type PushRegexController struct {
	command commands.PushRegex
}

// NewPushRegexController creates a new PushRegexController.
func NewPushRegexController(command commands.PushRegex) *PushRegexController {
	return &PushRegexController{command: command}
}

// GetBind returns the Cobra command metadata for the push-regex controller.
func (it *PushRegexController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "push-regex",
		Short: "Replace a regex capture group in every configured repository",
		Long: `Replace the first capture group of every line fully matching --regex with
--value, in the files selected by --files and --exclude, then open or update one
pull request per repository.

Example:
  updatebot push-regex --regex 'version: (.*)' --value 1.2.3 --files 'charts/*/Chart.yaml'`,
	}
}

// Execute runs the push-regex command.
func (it *PushRegexController) Execute(cmd *cobra.Command, _ []string) {
	options := regexOptions(cmd)
	if options.Regex == "" || options.Value == "" {
		logger.Errorf("Invalid arguments: %v", errMissingRegex)
		return
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	parent, err := it.command.Execute(context.Background(), settings, options)
	if err != nil {
		logger.Errorf("Push failed: %v", err)
		return
	}
	logStatuses(parent)
}

// AddFlags adds the push-regex specific flags to the given Cobra command.
func (it *PushRegexController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("regex", "r", "", "Regular expression with one capture group matching whole lines")
	cmd.Flags().String("value", "", "Replacement for the capture group")
	cmd.Flags().StringSliceP("files", "f", nil, "Glob patterns of the files to modify (default: all files)")
	cmd.Flags().StringSliceP("exclude", "x", nil, "Glob patterns of the files to leave alone")
	cmd.Flags().String("previous-line", "", "Regular expression the line before a match must match")
}

func regexOptions(cmd *cobra.Command) entities.RegexOptions {
	regex, _ := cmd.Flags().GetString("regex")
	value, _ := cmd.Flags().GetString("value")
	files, _ := cmd.Flags().GetStringSlice("files")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	previousLine, _ := cmd.Flags().GetString("previous-line")

	return entities.RegexOptions{
		Regex:               regex,
		Value:               value,
		Files:               files,
		ExcludeFiles:        exclude,
		PreviousLinePattern: previousLine,
	}
}
