package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dnlogistics/freightdesk/config"
	"github.com/dnlogistics/freightdesk/internal/broker/kafka"
	"github.com/dnlogistics/freightdesk/internal/cache/rediscache"
	"github.com/dnlogistics/freightdesk/internal/integrations/mailer"
	"github.com/dnlogistics/freightdesk/internal/integrations/mailer/fake"
	"github.com/dnlogistics/freightdesk/internal/integrations/mailer/mailhttp"
	"github.com/dnlogistics/freightdesk/internal/services/notifier"
	"github.com/dnlogistics/freightdesk/internal/storage/pgfreight"
)

type consumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage     func(cfg *config.Config) (repo notifier.Repository, closeFn func(), err error)
	newConsumer    func(cfg *config.Config, topic, group string) consumer
	newSender      func(cfg *config.Config) mailer.Sender
	newDedup       func(cfg *config.Config) notifier.Claimer
	newRateLimiter func(cfg *config.Config) notifier.RateLimiter
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (notifier.Repository, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgfreight.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) consumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
		newSender: func(cfg *config.Config) mailer.Sender {
			// No relay configured: record-only sender, useful for local runs.
			if cfg.Mailer.BaseURL == "" {
				return fake.New()
			}
			return mailhttp.New(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From)
		},
		newDedup: func(cfg *config.Config) notifier.Claimer {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.New(redisAddr)
		},
		newRateLimiter: func(cfg *config.Config) notifier.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
	}
}

func runNotifyWorker(ctx context.Context, cfg *config.Config, f workerFactories, onDispatcher func(*notifier.Dispatcher)) error {
	topic := cfg.Kafka.OrderStatusTopicName
	if topic == "" {
		topic = "order.status_changed"
	}
	group := cfg.FreightDesk.KafkaConsumerGroup
	if group == "" {
		group = "notify-worker"
	}
	dedupWindow := time.Duration(cfg.FreightDesk.NotifyDedupWindowSeconds) * time.Second
	rlPerMin := int64(cfg.FreightDesk.WorkerRateLimitPerMinute)

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	sender := f.newSender(cfg)
	dedup := f.newDedup(cfg)
	rl := f.newRateLimiter(cfg)

	n := notifier.New(repo, sender, dedup, cfg.FreightDesk.PublicTrackingBaseURL).
		WithDedupWindow(dedupWindow)
	d := notifier.NewDispatcher(n, rl, rlPerMin)
	if onDispatcher != nil {
		onDispatcher(d)
	}

	c := f.newConsumer(cfg, topic, group)
	defer func() { _ = c.Close() }()

	slog.Info("notify worker consuming", "topic", topic, "group", group)

	// The consume loop returns on any handler or broker error; restart it
	// until shutdown so a kafka hiccup doesn't kill the worker.
	for {
		err := c.Consume(ctx, func(key, value []byte) error {
			return d.Handle(ctx, key, value)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("consume loop exited, restarting", "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}
