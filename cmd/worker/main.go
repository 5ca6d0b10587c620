package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/matchtickets/config"
	"github.com/Domenick1991/matchtickets/internal/email"
	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/Domenick1991/matchtickets/internal/logger"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		boot := logger.New("prod")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env)

	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.NotificationsTopic == "" {
		log.Fatal().Msg("kafka.brokers and kafka.notifications_topic are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(log)

	log.Info().Str("topic", cfg.Kafka.NotificationsTopic).Msg("worker started")
	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeTicketEvent(msg)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed event")
			return nil
		}
		if err := sender.Send(ctx, event); err != nil {
			log.Warn().Err(err).Str("ticket", event.TicketID).Msg("receipt not sent")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("worker stopped")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}
