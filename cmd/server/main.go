package main

import (
	"github.com/opsgraph/backend/internal/server"
	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
