package main

import (
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/himakhaitan/redislens/pkg/logger"
	"github.com/himakhaitan/redislens/server"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		logger.Module("redislensd"),
		config.Module(),
		server.Module(),
	)

	app.Run()
}
