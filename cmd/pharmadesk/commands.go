package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pharmadesk/m/internal/api"
	"pharmadesk/m/internal/config"
	"pharmadesk/m/internal/database"
	"pharmadesk/m/internal/migrations"
	"pharmadesk/m/internal/onboarding"
	"pharmadesk/m/internal/pharmacy"
	"pharmadesk/m/internal/seed"
	"pharmadesk/m/internal/store"
	"pharmadesk/m/internal/store/memory"
	"pharmadesk/m/internal/store/sqlite"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the SQLite schema at DATABASE_DSN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := database.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrations.Run(ctx, db); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("dsn", cfg.DatabaseDSN))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print dashboard statistics as JSON",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

// openStore returns the configured repository, seeded as configured.
func openStore(ctx context.Context, cfg config.Config) (store.Repository, error) {
	var repo store.Repository
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := database.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		repo = sqlite.New(db)
	default:
		repo = memory.New()
	}

	if err := seed.LoadMedicineFile(ctx, repo, cfg.CatalogCSV, logger); err != nil {
		logger.Warn("medicine catalog not loaded", zap.Error(err))
	}
	if cfg.SeedDemo {
		if err := seed.LoadDemo(ctx, repo, logger); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}
	return repo, nil
}

func newService(repo store.Repository) *pharmacy.Service {
	return pharmacy.New(repo, pharmacy.Options{
		ExpiryWindow: cfg.ExpiryWindow,
		Location:     cfg.Location,
		Logger:       logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	var codes onboarding.CodeSource = onboarding.RandomCode
	if cfg.OTPCode != "" {
		codes = onboarding.StaticCode(cfg.OTPCode)
	}
	flow := onboarding.New(onboarding.Options{
		Sender:         onboarding.LogSender{Logger: logger},
		Codes:          codes,
		ResendCooldown: cfg.OTPResendCooldown,
		Logger:         logger,
	})
	handler := api.New(newService(repo), flow, api.Options{
		Secret:      cfg.Secret,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("pharmadesk server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	svc := newService(repo)

	var out any
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		days, _ := cmd.Flags().GetInt("days")
		top, _ := cmd.Flags().GetInt("top")
		out, err = svc.Summary(ctx, days, top)
	} else {
		out, err = svc.Dashboard(ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
