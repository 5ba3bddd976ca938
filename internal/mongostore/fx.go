package mongostore

import "go.uber.org/fx"

var Module = fx.Module("mongostore",
	fx.Provide(
		Open,
		NewUsageRepository,
		NewSeatRepository,
	),
)
