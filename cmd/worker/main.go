package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/events"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/storage"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger/console"
)

// The worker archives every graph the console publishes to S3.
func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		JSON:   util.GetEnvString("LOG_FORMAT", "text") == "json",
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}
	if !cfg.RabbitMQ.Enabled() || !cfg.S3.Enabled() {
		logger.Fatal("The archive worker needs RABBITMQ_HOST and AWS_BUCKET")
	}

	exporter, err := storage.NewExporterFromConfig(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("Failed to set up S3", "err", err)
	}

	conn, err := events.Connect(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queue := cfg.RabbitMQ.ArchiveQueue
	if err := events.SetupArchiveQueue(ch, cfg.RabbitMQ.Exchange, queue); err != nil {
		logger.Fatal("Failed to set up archive queue", "err", err)
	}

	// One unacked message at a time keeps snapshots of a session in order.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()
	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue,
		queue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue, "err", err)
	}

	archiver := events.NewArchiver(events.NewArchiverParams{
		Store:   exporter,
		Retry:   ch,
		Queue:   queue,
		Formats: []string{storage.FormatJSON, storage.FormatDOT},
	})

	logger.Info("Listening for graph events", "exchange", cfg.RabbitMQ.Exchange, "queue", queue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue)
				return
			}
			archiver.Handle(ctx, msg)
		}
	}
}
