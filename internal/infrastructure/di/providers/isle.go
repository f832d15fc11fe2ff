// Package providers registers the services of each module with the
// dependency injection container.
package providers

import (
	"github.com/samber/do"

	"github.com/joelreymont/hoist/internal/modules/isle"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// ProvideISLEServices registers the rule compiler and its port binding.
func ProvideISLEServices(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*isle.Compiler, error) {
		return isle.NewCompiler(), nil
	})

	do.Provide(injector, func(i *do.Injector) (ports.RuleCompiler, error) {
		return do.MustInvoke[*isle.Compiler](i), nil
	})
}
