package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain/visit"
	v1 "github.com/bobos12/eyeclinic/internal/handler/v1"
	"github.com/bobos12/eyeclinic/internal/repository"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/database"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/bobos12/eyeclinic/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	tp, err := tracer.Init(cfg.Tracing, cfg.App)
	if err != nil {
		return err
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := connectAndMigrate(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	m := metrics.NewCollector(metricsNamespace, prometheus.DefaultRegisterer)
	if err := database.InstrumentQueries(db, m.DBQueryDuration); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	go m.WatchDB(ctx, sqlDB, 15*time.Second)

	userRepo := repository.NewUserRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), m, log)
	limits := visit.Limits{IOPMax: cfg.Clinic.IOPMax}

	svc := v1.Services{
		Auth:     service.NewAuthService(userRepo, auth.NewJWTManager(cfg.JWT), auditSvc, m, log),
		Users:    service.NewUserService(userRepo, auditSvc, log),
		Patients: service.NewPatientService(patientRepo, visitRepo, auditSvc, m, log),
		Visits:   service.NewVisitService(visitRepo, patientRepo, auditSvc, m, limits, log),
		Health: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return database.Ping(ctx, db)
		},
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      v1.NewRouter(cfg, svc, m, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			auditSvc.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	// Handlers are done; flush what they queued.
	auditSvc.Shutdown()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
