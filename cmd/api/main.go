package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"foliowatch/backend-go/internal/config"
	internalhttp "foliowatch/backend-go/internal/http"
	"foliowatch/backend-go/internal/services"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"../.env",
		"../.env.local",
		"backend-go/.env",
		"backend-go/.env.local",
	)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	cache := services.NewCache(cfg)
	analysis := services.NewAnalysisClient(cfg)

	h := internalhttp.NewRouter(cfg, cache, analysis)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("foliowatch backend listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
