package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/matchtickets/api"
	"github.com/Domenick1991/matchtickets/config"
	"github.com/Domenick1991/matchtickets/internal/bootstrap"
	"github.com/Domenick1991/matchtickets/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		boot := logger.New("prod")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap")
	}
	defer app.Close()

	limiter := api.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	go limiter.Cleanup(ctx, 3*time.Minute)

	if err := bootstrap.Serve(ctx, cfg.HTTP.Address, app.Router(limiter), log); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}
