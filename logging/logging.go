package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

const LogConfigEnv = "GALLERIA_LOG_CONFIG"

// LoadLogging configures the global zerolog logger from the YAML file named
// by GALLERIA_LOG_CONFIG (zeroconfig format). Without the variable the
// process logs to stderr on info level.
func LoadLogging() {
	path := os.Getenv(LogConfigEnv)
	if path == "" {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Logger.Fatal().Err(err).
			Msg(LogConfigEnv + " is not readable")
		panic(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Logger.Fatal().Err(err).
			Msg(LogConfigEnv + " is not readable")
		panic(err)
	}

	var cfg zeroconfig.Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Logger.Fatal().Err(err).
			Msg(LogConfigEnv + " is not valid yaml")
		panic(err)
	}

	logger, err := cfg.Compile()
	if err != nil {
		log.Logger.Fatal().Err(err).
			Msg(LogConfigEnv + " is not valid for zerolog, see go.mau.fi/zeroconfig documentation")
		panic(err)
	}
	log.Logger = *logger
}
