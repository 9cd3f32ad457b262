package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/notification"
	"github.com/smukkama/weather-monitor/internal/observability"
	"github.com/smukkama/weather-monitor/internal/protocol"
	"github.com/smukkama/weather-monitor/internal/queue"
	"github.com/smukkama/weather-monitor/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting notification service")

	notifier := notification.NewEmailNotifier(&cfg.SMTP, logger)
	if err := notifier.TestConnection(); err != nil {
		logger.Warn("smtp not reachable, alerts will be logged only", zap.Error(err))
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts, "notification-group")
	defer consumer.Close()
	logger.Info("kafka consumer initialized", zap.String("topic", cfg.Kafka.TopicAlerts))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go consumeLoop(ctx, consumer, notifier, logger)

	<-ctx.Done()
	logger.Info("shutting down gracefully")
}

func consumeLoop(ctx context.Context, consumer *queue.Consumer, notifier *notification.EmailNotifier, logger *zap.Logger) {
	for {
		msg, err := consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("failed to consume message", zap.Error(err))
			continue
		}

		alert, err := protocol.DecodeAlertMessage(msg.Value)
		if err != nil {
			// Malformed message, commit so it is not redelivered forever.
			logger.Error("failed to decode alert", zap.Error(err))
			consumer.Commit(ctx, msg)
			continue
		}

		if err := notifier.SendAlert(alert); err != nil {
			// No commit on send failure so the alert is retried.
			logger.Error("failed to send alert email",
				zap.String("city", alert.City),
				zap.String("email", alert.Email),
				zap.Error(err))
			continue
		}

		if err := consumer.Commit(ctx, msg); err != nil {
			logger.Error("failed to commit offset", zap.Error(err))
		}
	}
}
