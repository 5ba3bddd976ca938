package ingest

import (
	"github.com/smallbiznis/copilot-insights/internal/github"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest",
	fx.Provide(
		fx.Annotate(func(c *github.Client) *github.Client { return c },
			fx.As(new(MetricsSource)),
			fx.As(new(SeatSource)),
		),
		NewRunner,
	),
)
