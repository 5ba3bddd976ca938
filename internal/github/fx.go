package github

import "go.uber.org/fx"

var Module = fx.Module("github.client",
	fx.Provide(NewClient),
)
