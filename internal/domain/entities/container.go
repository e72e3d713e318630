package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
// Settings requires a config file path, so controllers load it themselves.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewBranchCache); err != nil {
		return err
	}
	return nil
}
