package usage

import (
	"github.com/smallbiznis/copilot-insights/internal/usage/repository"
	"github.com/smallbiznis/copilot-insights/internal/usage/service"
	"go.uber.org/fx"
)

// Module wires the gorm backed usage store and service.
var Module = fx.Module("usage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

// ServiceModule wires only the service, for callers that bring their own repository.
var ServiceModule = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
