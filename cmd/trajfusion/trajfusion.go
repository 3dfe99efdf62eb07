package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/dataimporter"
	"github.com/travigo/trajfusion/pkg/events"
	"github.com/travigo/trajfusion/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

func main() {
	// stdout is kept for command output such as the discovery summary
	if os.Getenv("TRAJFUSION_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRAJFUSION_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "trajfusion",
		Description: "Normalises GNSS and V2X recordings into fused per vehicle trajectories",

		Commands: []*cli.Command{
			pipeline.RegisterCLI(),
			dataimporter.RegisterCLI(),
			events.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
