package main

import (
	"context"
	"flag"
	"os"

	"github.com/Temirlan0k/ride-dispatch/config"
	"github.com/Temirlan0k/ride-dispatch/internal/app"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	logLevel   = flag.String("log-level", logger.LevelDebug, "Log level (DEBUG, INFO, WARN, ERROR)")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	lvl := *logLevel
	if !logger.ValidateLogLevel(lvl) {
		lvl = logger.LevelDebug
	}
	log := logger.InitLogger("ride-dispatch", lvl)

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
