package main

import (
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/server"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvString("LOG_FORMAT", "text") == "json",
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	server.Init(cfg)
}
