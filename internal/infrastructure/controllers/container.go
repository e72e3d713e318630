package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	constructors := []any{
		NewPushVersionController,
		NewPushRegexController,
		NewUpdateController,
		NewUpdateLoopController,
		NewControllers,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}
	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	pushVersionController *PushVersionController,
	pushRegexController *PushRegexController,
	updateController *UpdateController,
	updateLoopController *UpdateLoopController,
) *[]entities.Controller {
	return &[]entities.Controller{
		pushVersionController,
		pushRegexController,
		updateController,
		updateLoopController,
	}
}
