package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/forensys/evidence-custody/internal/api_server"
	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the custody api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(cfg.Service.LogLevel)
		defer func() { _ = logger.Sync() }()

		zap.S().Named("custody_api").Info("starting custody api service")
		defer zap.S().Named("custody_api").Info("custody api service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("custody_api").Fatalf("initializing data store: %v", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if err := st.InitialMigration(); err != nil {
			zap.S().Named("custody_api").Fatalf("running initial migration: %v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Named("custody_api").Fatalf("creating listener: %s", err)
			}

			server := apiserver.New(cfg, st, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Named("custody_api").Fatalf("error running server: %s", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Named("custody_api").Fatalf("creating metrics listener: %s", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Named("custody_api").Fatalf("error running metrics server: %s", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
