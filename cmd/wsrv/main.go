package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ostep-projects/wsrv/pkg/config"
	"github.com/ostep-projects/wsrv/pkg/logging"
	"github.com/ostep-projects/wsrv/pkg/server"
)

var log = logging.New()

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := config.NewRootCommand(func(cfg config.ServerConfig) error {
		log.Infof("starting on port %d, document root %s, %d workers, queue capacity %d, policy %s",
			cfg.Port, cfg.DocumentRoot, cfg.Workers, cfg.QueueCapacity, cfg.Policy)

		srv := server.New(log, cfg)
		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Run(ctx)
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			// The design tolerates abrupt termination on shutdown signals
			// rather than draining the queue and in-flight workers.
			log.Infoln("shutdown signal received, terminating")
			return nil
		}
	})

	if err := root.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
