// Package di assembles the dependency injection container for islec.
package di

import (
	"github.com/samber/do"

	"github.com/joelreymont/hoist/internal/infrastructure/di/providers"
)

// Container wraps the do.Injector with application-level assembly.
type Container struct {
	*do.Injector
}

// NewContainer creates a container with every service provider registered.
func NewContainer() *Container {
	container := &Container{
		Injector: do.New(),
	}
	providers.ProvideISLEServices(container.Injector)
	return container
}

// Shutdown releases all container-managed services.
func (c *Container) Shutdown() error {
	return c.Injector.Shutdown()
}
