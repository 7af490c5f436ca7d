package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dnlogistics/freightdesk/config"
	"github.com/dnlogistics/freightdesk/internal/api/freightapi"
	"github.com/dnlogistics/freightdesk/internal/broker/kafka"
	"github.com/dnlogistics/freightdesk/internal/cache/rediscache"
	"github.com/dnlogistics/freightdesk/internal/services/containers"
	"github.com/dnlogistics/freightdesk/internal/services/orders"
	"github.com/dnlogistics/freightdesk/internal/services/qrresolve"
	"github.com/dnlogistics/freightdesk/internal/services/tracking"
	"github.com/dnlogistics/freightdesk/internal/storage/pgfreight"
)

type freightAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   freightAPIOpts
	api    *freightapi.API

	closeDB       func()
	closeProducer func() error
}

func mustBootstrapFreightAPI() *freightAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	httpAddr := cfg.FreightDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.OrderStatusTopicName
	if topic == "" {
		topic = "order.status_changed"
	}
	cacheTTL := time.Duration(cfg.FreightDesk.CurrentStatusTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	ordersSvc := orders.New(st, producer, topic)
	trackingSvc := tracking.New(st, producer, topic)
	containersSvc := containers.New(st, producer, topic)
	resolver := qrresolve.New(st).WithCache(rc, cacheTTL)

	api := freightapi.New(ordersSvc, trackingSvc, containersSvc, resolver, st)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &freightAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: freightAPIOpts{
			httpAddr:    httpAddr,
			swaggerPath: swaggerPath,
		},
		api:           api,
		closeDB:       st.Close,
		closeProducer: producer.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgfreight.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgfreight.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *freightAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.closeProducer != nil {
		_ = a.closeProducer()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *freightAPIApp) Run() error {
	return runFreightAPI(a.ctx, a.opts, a.api)
}
