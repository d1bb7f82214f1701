// Package apiserver wires the custody service together and runs the
// HTTP front end.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/download"
	"github.com/forensys/evidence-custody/internal/events"
	handlers "github.com/forensys/evidence-custody/internal/handlers/v1alpha1"
	"github.com/forensys/evidence-custody/internal/metadata"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/pipeline/jobs"
	"github.com/forensys/evidence-custody/internal/report"
	"github.com/forensys/evidence-custody/internal/service"
	"github.com/forensys/evidence-custody/internal/storage"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/pkg/log"
	"github.com/forensys/evidence-custody/pkg/metrics"
	"github.com/forensys/evidence-custody/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	riverStopTimeout        = 30 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

func New(cfg *config.Config, store store.Store, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	logger := zap.S().Named("api_server")
	logger.Info("initializing API server")

	backend, err := storage.New(s.cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	spoolDir := s.cfg.Limits.SpoolDir
	if spoolDir == "" {
		spoolDir = filepath.Join(os.TempDir(), "custody-spool")
	}
	downloader, err := download.NewHTTPDownloader(
		spoolDir,
		s.cfg.Limits.MaxDownloadBytes,
		time.Duration(s.cfg.Limits.DownloadTimeoutSec)*time.Second,
	)
	if err != nil {
		return fmt.Errorf("initializing downloader: %w", err)
	}

	reportDir := s.cfg.Limits.ReportOutputDir
	if reportDir == "" {
		reportDir = "./custody_reports"
	}
	reports, err := report.NewGenerator(reportDir)
	if err != nil {
		return fmt.Errorf("initializing report generator: %w", err)
	}

	producer := events.NewProducer(&events.StdoutWriter{})
	defer func() { _ = producer.Close() }()

	pipe := pipeline.New(
		s.store,
		backend,
		metadata.NewExtractor(),
		downloader,
		reports,
		producer,
		time.Duration(s.cfg.Limits.StageTimeoutSec)*time.Second,
		s.cfg.Limits.AllowedMimeTypes,
	)

	var enqueuer jobs.Enqueuer
	if s.cfg.Queue.Enabled {
		pool, err := s.newPgxPool(ctx)
		if err != nil {
			return fmt.Errorf("initializing queue pool: %w", err)
		}
		defer pool.Close()

		queueClient, err := jobs.NewClient(ctx, pool, pipe, s.cfg.Queue.MaxWorkers)
		if err != nil {
			return fmt.Errorf("initializing queue client: %w", err)
		}
		if err := queueClient.Start(ctx); err != nil {
			return fmt.Errorf("starting queue client: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), riverStopTimeout)
			defer cancel()
			if err := queueClient.Stop(stopCtx); err != nil {
				logger.Warnw("failed to stop queue client", "error", err)
			}
		}()
		enqueuer = queueClient
		logger.Info("durable job queue initialized")
	} else {
		logger.Info("durable queue disabled, jobs run in-process")
	}

	dispatcher := jobs.NewDispatcher(enqueuer, pipe, s.cfg.Queue.FallbackEnabled, s.cfg.Queue.MaxWorkers)
	defer dispatcher.Wait()

	validator := service.NewSubmissionValidator(s.cfg)
	jobSrv := service.NewJobService(s.store, dispatcher, validator, s.cfg)
	verifySrv := service.NewVerificationService(s.store, pipeline.NewVerifier(s.store, backend, producer))
	reportSrv := service.NewReportService(s.store, reports)

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		log.Logger(zap.L(), "router"),
		chiMiddleware.Recoverer,
	)

	handlers.NewServiceHandler(jobSrv, verifySrv, reportSrv).RegisterRoutes(router)

	go s.sweepStaleJobs(ctx, jobSrv)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		logger.Infof("shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		logger.Info("api server terminated")
	}()

	logger.Infof("listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

func (s *Server) newPgxPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		s.cfg.Database.Hostname,
		s.cfg.Database.User,
		s.cfg.Database.Password,
		s.cfg.Database.Port,
		s.cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// sweepStaleJobs periodically flags processing jobs that stopped making
// progress. Flagged jobs are logged for operator review only.
func (s *Server) sweepStaleJobs(ctx context.Context, jobSrv *service.JobService) {
	interval := time.Duration(s.cfg.Limits.StaleThresholdMin) * time.Minute / 2
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := jobSrv.FlagStale(ctx); err != nil {
				zap.S().Named("api_server").Errorw("stale job sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
