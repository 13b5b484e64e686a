// Package main runs the email worker. It consumes mail jobs from RabbitMQ
// and delivers them through Mailgun or SendGrid at a throttled rate.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/mailer"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	utils.InitLogger(cfg)

	if cfg.RabbitMQ.URL == "" {
		log.Fatal().Msg("RabbitMQ is not configured")
	}
	sender, err := mailer.NewSender(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Email.Provider).Msg("Email provider is not usable")
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open channel")
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.RabbitMQ.Queue, true, false, false, false, nil); err != nil {
		log.Fatal().Err(err).Str("queue", cfg.RabbitMQ.Queue).Msg("Failed to declare queue")
	}
	if err := ch.Qos(cfg.RabbitMQ.Prefetch, 0, false); err != nil {
		log.Fatal().Err(err).Msg("Failed to set prefetch")
	}

	deliveries, err := ch.Consume(cfg.RabbitMQ.Queue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start consuming")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := mailer.NewWorker(sender, cfg.Email.RatePerSec, cfg.Email.Burst)

	log.Info().
		Str("queue", cfg.RabbitMQ.Queue).
		Str("provider", cfg.Email.Provider).
		Int("prefetch", cfg.RabbitMQ.Prefetch).
		Float64("rate_per_sec", cfg.Email.RatePerSec).
		Msg("Email worker listening")

	worker.Run(ctx, deliveries)

	if ctx.Err() == nil {
		// Deliveries closed under us: exit non-zero so the supervisor restarts
		// the worker against the recovered broker.
		log.Fatal().Msg("RabbitMQ closed the delivery channel")
	}
	log.Info().Msg("Email worker stopped")
}
