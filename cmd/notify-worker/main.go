package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnlogistics/freightdesk/config"
	"github.com/dnlogistics/freightdesk/internal/services/notifier"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The ops HTTP server needs the dispatcher that runNotifyWorker builds.
	dispatcherCh := make(chan *notifier.Dispatcher, 1)

	httpErr := make(chan error, 1)
	go func() {
		d := <-dispatcherCh
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    cfg.FreightDesk.WorkerHTTPAddr,
			swaggerPath: os.Getenv("swaggerPath"),
			dispatcher:  d,
			cfg:         cfg,
		})
	}()

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- runNotifyWorker(ctx, cfg, defaultWorkerFactories(), func(d *notifier.Dispatcher) {
			dispatcherCh <- d
		})
	}()

	select {
	case <-ctx.Done():
	case err := <-workerErr:
		if err != nil && err != context.Canceled {
			slog.Error("worker stopped", "err", err)
			panic(err)
		}
	case err := <-httpErr:
		if err != nil && err != context.Canceled {
			slog.Error("worker http server stopped", "err", err)
			panic(err)
		}
	}
}
