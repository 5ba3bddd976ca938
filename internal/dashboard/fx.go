package dashboard

import (
	"github.com/smallbiznis/copilot-insights/internal/cache"
	"github.com/smallbiznis/copilot-insights/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(cache.NewUsageDaysCache),
	fx.Provide(service.NewService),
)
