package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// UpdateController handles the "update" subcommand.
type UpdateController struct {
	command commands.UpdatePullRequests
}

// NewUpdateController creates a new UpdateController.
func NewUpdateController(command commands.UpdatePullRequests) *UpdateController {
	return &UpdateController{command: command}
}

// GetBind returns the Cobra command metadata for the update controller.
func (it *UpdateController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "update",
		Short: "Update the open pull requests once",
		Long: `Visit the open updatebot pull requests of every configured repository once:
merge the green and mergeable ones when merging is enabled, and rebase the
conflicting ones in rebase mode by replaying the command that created them.`,
	}
}

// Execute runs a single update pass.
func (it *UpdateController) Execute(cmd *cobra.Command, _ []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	parent, err := it.command.Execute(context.Background(), settings)
	if err != nil {
		logger.Errorf("Update failed: %v", err)
		return
	}
	logStatuses(parent)
}
