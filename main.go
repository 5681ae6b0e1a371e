package main

import (
	"galleria/cli"
	"galleria/config"
	"galleria/exif"
	"galleria/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Best effort; a missing .env file is the normal case outside
	// development.
	_ = godotenv.Load()

	logging.LoadLogging()

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to load configuration")
		panic(err)
	}
	config.SetGlobal(cfg)

	defer exif.ShutdownExiftool()

	err = cli.Run(cfg)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to run Galleria")
		panic(err)
	}
}
