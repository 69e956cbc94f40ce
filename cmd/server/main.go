package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"campaign-console/internal/app/server"
	"campaign-console/internal/config"
)

func main() {
	_ = godotenv.Load() // optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogging(cfg.Server.LogLevel)

	if err := server.Run(cfg); err != nil {
		log.Fatal().Err(err).Msg("sandbox server")
	}
}
