package cli

import "go.uber.org/fx"

// Module provides the root command. It depends on *config.Config, so
// config.Module must be part of the same app.
var Module = fx.Provide(NewCLI)
