package seat

import (
	"github.com/smallbiznis/copilot-insights/internal/seat/repository"
	"github.com/smallbiznis/copilot-insights/internal/seat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("seat.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

var ServiceModule = fx.Module("seat.service",
	fx.Provide(service.NewService),
)
