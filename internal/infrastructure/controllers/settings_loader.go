package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// FlagsAdder is implemented by controllers owning subcommand specific flags.
type FlagsAdder interface {
	AddFlags(cmd *cobra.Command)
}

// loadSettings reads the settings named by --config (or the first one found) and
// applies the persistent --dry-run and --verbose flags on top.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	if configPath == "" {
		var err error
		configPath, err = entities.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found, specify one with --config or create .updatebot.yaml: %w", err)
		}
	}
	logger.Infof("Using config file: %s", configPath)

	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dryRun {
		settings.DryRun = true
	}
	return settings, nil
}

func logStatuses(parent *entities.ParentContext) {
	for _, info := range parent.StatusInfos() {
		logger.Info(info.String())
	}
}
