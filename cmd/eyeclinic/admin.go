package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/repository"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/database"
	"github.com/bobos12/eyeclinic/pkg/logger"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// createAdminCmd bootstraps the first administrator, who can then register
// everyone else through the API.
func createAdminCmd() *cobra.Command {
	var name, email, password, phone string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			db, err := connectAndMigrate(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck

			m := metrics.NewCollector(metricsNamespace, prometheus.NewRegistry())
			userRepo := repository.NewUserRepository(db)
			auditSvc := service.NewAuditService(repository.NewAuditRepository(db), m, log)
			defer auditSvc.Shutdown()

			authSvc := service.NewAuthService(userRepo, auth.NewJWTManager(cfg.JWT), auditSvc, m, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			// The command line acts as an administrator with no account.
			caller := service.Caller{Role: domain.RoleAdmin, IP: "cli", RequestID: "create-admin"}
			u, err := authSvc.Register(ctx, &domain.RegisterUserCommand{
				Name:     name,
				Email:    email,
				Password: password,
				Phone:    phone,
				Role:     domain.RoleAdmin,
			}, caller)
			if err != nil {
				return fmt.Errorf("creating admin: %w", err)
			}

			log.Info("admin created", zap.String("user_id", u.ID.String()), logger.Email("email", u.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s <%s> created with id %s\n", u.Name, u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
