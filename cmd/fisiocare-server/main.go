package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fisiocare/fisiocare/internal/config"
	"github.com/fisiocare/fisiocare/internal/domain/analytics"
	"github.com/fisiocare/fisiocare/internal/domain/appointment"
	"github.com/fisiocare/fisiocare/internal/domain/cart"
	"github.com/fisiocare/fisiocare/internal/domain/catalog"
	"github.com/fisiocare/fisiocare/internal/domain/codepool"
	"github.com/fisiocare/fisiocare/internal/domain/exercise"
	"github.com/fisiocare/fisiocare/internal/domain/identity"
	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/internal/platform/blobstore"
	"github.com/fisiocare/fisiocare/internal/platform/bot"
	"github.com/fisiocare/fisiocare/internal/platform/db"
	"github.com/fisiocare/fisiocare/internal/platform/mail"
	"github.com/fisiocare/fisiocare/internal/platform/middleware"
	"github.com/fisiocare/fisiocare/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fisiocare-server",
		Short: "Physiotherapy clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool))

	// Two groups share the /api/v1 prefix: public carries the routes a
	// visitor can reach without a session, api requires a valid token.
	public := e.Group("/api/v1")
	api := e.Group("/api/v1")
	api.Use(auth.Middleware([]byte(cfg.JWTSecret)))

	// Mail: real relay when configured, log-only otherwise.
	var mailer mail.Sender
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Pass:     cfg.SMTPPass,
			FromName: cfg.SMTPFromName,
			FromAddr: cfg.SMTPFromAddr,
		})
		logger.Info().Str("host", cfg.SMTPHost).Msg("SMTP relay configured")
	} else {
		mailer = mail.NewLogSender(logger)
		logger.Warn().Msg("SMTP_HOST not set; outgoing mail will only be logged")
	}
	templates := mail.NewTemplateEngine()

	txRunner := db.RunnerFor(pool)

	// Identity: accounts, sessions, therapists, password resets.
	userRepo := identity.NewPGUserRepo(pool)
	therapistRepo := identity.NewPGTherapistRepo(pool)
	resetRepo := identity.NewPGResetRepo(pool)
	identitySvc := identity.NewService(
		userRepo, therapistRepo, resetRepo,
		mailer, templates,
		[]byte(cfg.JWTSecret), cfg.AppBaseURL, logger,
	)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	// Appointment code pool.
	codeSvc := codepool.NewService(codepool.NewPGRepo(pool), logger)

	// Catalog of services and products.
	productRepo := catalog.NewPGProductRepo(pool)
	catalogSvc := catalog.NewCatalog(catalog.NewPGServiceRepo(pool), productRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)

	// Appointment lifecycle. The catalog prices the patient plan created
	// on confirmation.
	apptSvc := appointment.NewService(
		appointment.NewPGAppointmentRepo(pool),
		appointment.NewPGEscortRepo(pool),
		appointment.NewPGPatientRepo(pool),
		codeSvc,
		identitySvc,
		catalogSvc,
		txRunner,
		mailer, templates,
		logger,
	)
	appointment.NewHandler(apptSvc, identitySvc).RegisterRoutes(public, api)

	// Cart and checkout.
	cartSvc := cart.NewService(cart.NewPGCartRepo(pool), cart.NewPGPurchaseRepo(pool), productRepo, txRunner)
	cart.NewHandler(cartSvc).RegisterRoutes(api)

	// Exercise library and patient plans.
	exerciseSvc := exercise.NewService(exercise.NewPGExerciseRepo(pool), exercise.NewPGAssignmentRepo(pool))
	exercise.NewHandler(exerciseSvc).RegisterRoutes(api)

	// PDF report storage.
	blobstore.NewHandler(blobstore.NewPGStore(pool)).RegisterRoutes(api)

	// FAQ chatbot.
	bot.NewHandler(bot.NewEngine()).RegisterRoutes(public, api)

	// Admin analytics and CSV exports.
	analytics.NewHandler(pool).RegisterRoutes(api)
	reporting.NewHandler(pool).RegisterRoutes(api)

	// Start and wait for shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
